// Package mic acquires the host microphone through portaudio. It is
// the only package in the module with a cgo dependency, so the pure-Go
// capture pipeline and the tools that never record stay buildable
// without the C library.
package mic

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/meetscribe/scribe-go/audio"
)

// PortAudio returns a factory acquiring the default input device
// through portaudio, mono, at the configured sample rate.
func PortAudio() audio.SourceFactory {
	return func(cfg audio.Config, fn func(samples []float32)) (audio.Source, error) {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("portaudio: initialize: %w", err)
		}

		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			_ = portaudio.Terminate()
			return nil, fmt.Errorf("portaudio: no input device: %w", err)
		}

		sampleRate := float64(cfg.SampleRate)
		if sampleRate == 0 {
			sampleRate = dev.DefaultSampleRate
		}

		logger := slog.Default().With(
			slog.String("component", "portaudio"),
			slog.String("device", dev.Name),
		)

		if cfg.EchoCancellation || cfg.NoiseSuppression {
			// portaudio exposes no processing knobs; capture is raw
			logger.Debug("echo cancellation / noise suppression not available on this host")
		}

		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: 1,
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      sampleRate,
			FramesPerBuffer: cfg.WindowSize,
		}

		stream, err := portaudio.OpenStream(params, func(in []float32) {
			fn(in)
		})
		if err != nil {
			_ = portaudio.Terminate()
			return nil, fmt.Errorf("portaudio: open stream: %w", err)
		}

		logger.Info("input device acquired", slog.Float64("sample_rate", sampleRate))

		return &source{stream: stream}, nil
	}
}

type source struct {
	stream    *portaudio.Stream
	closeOnce sync.Once
}

func (s *source) Start() error {
	return s.stream.Start()
}

func (s *source) Stop() error {
	return s.stream.Stop()
}

func (s *source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.stream.Close()
		if terr := portaudio.Terminate(); err == nil {
			err = terr
		}
	})
	return err
}

var _ audio.Source = &source{}
