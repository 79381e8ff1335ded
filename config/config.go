// Package config loads client configuration from defaults, a .env
// file, environment variables, an optional YAML file and command-line
// flags, in that order of increasing precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meetscribe/scribe-go/transport/ws"
)

// Config holds everything the client binary needs.
type Config struct {
	ServerURL            string
	ConnectTimeout       time.Duration
	SampleRate           int
	WindowSize           int
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	EchoCancellation     bool
	NoiseSuppression     bool
	LogLevel             string
}

// fileConfig mirrors Config for the YAML file. The capture switches
// are pointers so that an explicit `false` in the file is
// distinguishable from the key being absent.
type fileConfig struct {
	ServerURL            string        `yaml:"server_url"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	SampleRate           int           `yaml:"sample_rate"`
	WindowSize           int           `yaml:"window_size"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	EchoCancellation     *bool         `yaml:"echo_cancellation"`
	NoiseSuppression     *bool         `yaml:"noise_suppression"`
	LogLevel             string        `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:            ws.DefaultURL,
		ConnectTimeout:       10 * time.Second,
		SampleRate:           0, // device default
		WindowSize:           2048,
		ReconnectDelay:       2 * time.Second,
		MaxReconnectAttempts: 5,
		EchoCancellation:     true,
		NoiseSuppression:     true,
		LogLevel:             "info",
	}
}

// Load builds the configuration from args (usually os.Args[1:]).
func Load(args []string) (*Config, error) {
	cfg := Default()

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("scribe", flag.ContinueOnError)
	var file string
	fs.StringVar(&file, "config", "", "path to YAML config file")
	fs.StringVar(&cfg.ServerURL, "url", cfg.ServerURL, "websocket endpoint of the transcription backend")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "dial timeout")
	fs.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "capture sample rate in Hz (0 = device default)")
	fs.IntVar(&cfg.WindowSize, "window", cfg.WindowSize, "samples per forwarded audio frame")
	fs.DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "delay between reconnect attempts")
	fs.IntVar(&cfg.MaxReconnectAttempts, "max-reconnect-attempts", cfg.MaxReconnectAttempts, "consecutive reconnect attempts before giving up")
	fs.BoolVar(&cfg.EchoCancellation, "echo-cancellation", cfg.EchoCancellation, "request echo cancellation from the capture host")
	fs.BoolVar(&cfg.NoiseSuppression, "noise-suppression", cfg.NoiseSuppression, "request noise suppression from the capture host")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if file != "" {
		if err := cfg.fromFile(file, fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) fromEnv() error {
	if v := os.Getenv("SCRIBE_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("SCRIBE_SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRIBE_SAMPLE_RATE: %w", err)
		}
		c.SampleRate = n
	}
	if v := os.Getenv("SCRIBE_WINDOW_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRIBE_WINDOW_SIZE: %w", err)
		}
		c.WindowSize = n
	}
	if v := os.Getenv("SCRIBE_RECONNECT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCRIBE_RECONNECT_DELAY: %w", err)
		}
		c.ReconnectDelay = d
	}
	if v := os.Getenv("SCRIBE_MAX_RECONNECT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCRIBE_MAX_RECONNECT_ATTEMPTS: %w", err)
		}
		c.MaxReconnectAttempts = n
	}
	if v := os.Getenv("SCRIBE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// fromFile merges the YAML file into the configuration. Values set
// explicitly on the command line keep precedence over the file.
func (c *Config) fromFile(path string, fs *flag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fileCfg.ServerURL != "" && !set["url"] {
		c.ServerURL = fileCfg.ServerURL
	}
	if fileCfg.ConnectTimeout != 0 && !set["connect-timeout"] {
		c.ConnectTimeout = fileCfg.ConnectTimeout
	}
	if fileCfg.SampleRate != 0 && !set["sample-rate"] {
		c.SampleRate = fileCfg.SampleRate
	}
	if fileCfg.WindowSize != 0 && !set["window"] {
		c.WindowSize = fileCfg.WindowSize
	}
	if fileCfg.ReconnectDelay != 0 && !set["reconnect-delay"] {
		c.ReconnectDelay = fileCfg.ReconnectDelay
	}
	if fileCfg.MaxReconnectAttempts != 0 && !set["max-reconnect-attempts"] {
		c.MaxReconnectAttempts = fileCfg.MaxReconnectAttempts
	}
	if fileCfg.EchoCancellation != nil && !set["echo-cancellation"] {
		c.EchoCancellation = *fileCfg.EchoCancellation
	}
	if fileCfg.NoiseSuppression != nil && !set["noise-suppression"] {
		c.NoiseSuppression = *fileCfg.NoiseSuppression
	}
	if fileCfg.LogLevel != "" && !set["log-level"] {
		c.LogLevel = fileCfg.LogLevel
	}

	return nil
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("max reconnect attempts must not be negative")
	}
	return nil
}
