// Package audio captures microphone input and forwards it to the
// transcription server as fixed-size frames of raw little-endian
// float32 PCM, mono, at the device sample rate.
package audio

import "errors"

var (
	// ErrNotConnected rejects a capture start while the transport is
	// not open. Nothing is acquired in that case.
	ErrNotConnected = errors.New("audio: not connected to transcription server")

	// ErrAlreadyRecording rejects a second start on a running session.
	ErrAlreadyRecording = errors.New("audio: already recording")
)

// Config holds the capture parameters.
type Config struct {
	// SampleRate in Hz. 0 means the device default.
	SampleRate int

	// WindowSize is the number of samples per forwarded frame.
	// 0 means 2048.
	WindowSize int

	// EchoCancellation and NoiseSuppression are requested from the
	// platform; hosts that cannot honor them capture raw input.
	EchoCancellation bool
	NoiseSuppression bool
}

const defaultWindowSize = 2048

func (c *Config) defaults() {
	if c.WindowSize == 0 {
		c.WindowSize = defaultWindowSize
	}
}

// Source is an acquired microphone handle delivering mono samples to
// the callback it was created with.
type Source interface {
	// Start begins sample delivery.
	Start() error

	// Stop halts sample delivery; the handle stays acquired.
	Stop() error

	// Close releases the device handle and any platform context.
	Close() error
}

// SourceFactory acquires a microphone. It is invoked on every capture
// start, so a stopped session holds no device handle.
type SourceFactory func(cfg Config, fn func(samples []float32)) (Source, error)
