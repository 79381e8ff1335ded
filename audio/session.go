package audio

import (
	"log/slog"
	"sync"
)

// Uplink is where captured frames go. Satisfied by scribe.Client.
type Uplink interface {
	Connected() bool
	SendAudio(frame []byte)
}

// Session owns the capture pipeline: microphone source, windowing
// stage and the forwarder pushing full windows to the uplink. Frames
// are forwarded only while the session is recording and the uplink is
// connected. The session exclusively owns its source; Stop releases
// everything and is safe to call at any time, in any state.
type Session struct {
	cfg       Config
	uplink    Uplink
	newSource SourceFactory
	logger    *slog.Logger

	mu        sync.Mutex
	recording bool
	source    Source
	window    *Windower
	done      chan struct{}
}

func NewSession(cfg Config, uplink Uplink, newSource SourceFactory, logger *slog.Logger) *Session {
	cfg.defaults()
	return &Session{
		cfg:       cfg,
		uplink:    uplink,
		newSource: newSource,
		logger:    logger.With(slog.String("component", "capture")),
	}
}

// Recording reports whether the session is currently capturing.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Start acquires the microphone and begins forwarding. It fails
// without acquiring anything when the uplink is not connected, and
// releases everything it did acquire when a later step fails.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording {
		return ErrAlreadyRecording
	}

	if !s.uplink.Connected() {
		return ErrNotConnected
	}

	window := NewWindower(s.cfg.WindowSize)

	source, err := s.newSource(s.cfg, func(samples []float32) {
		// capture callback: encode and hand off to the windowing
		// stage; when the stage is gone or full the samples are
		// dropped, there is no backpressure towards the device
		_, _ = window.Write(EncodeFrame(samples))
	})
	if err != nil {
		_ = window.Close()
		return err
	}

	if err := source.Start(); err != nil {
		_ = window.Close()
		_ = source.Close()
		return err
	}

	s.window = window
	s.source = source
	s.recording = true
	s.done = make(chan struct{})

	s.logger.Info("recording started",
		slog.Int("window_size", s.cfg.WindowSize),
		slog.Int("sample_rate", s.cfg.SampleRate))

	go s.forward(window, s.done)

	return nil
}

// forward pushes full windows to the uplink until the windowing stage
// is closed.
func (s *Session) forward(window *Windower, done chan struct{}) {
	defer close(done)

	for {
		frame, err := window.Next()
		if err != nil {
			return
		}

		if !s.Recording() || !s.uplink.Connected() {
			continue
		}

		s.uplink.SendAudio(frame)
	}
}

// Stop tears the pipeline down in order: windowing stage, source
// stream, device handle. Every step is guarded so the full sequence
// runs even when an earlier stage was never initialized; calling Stop
// twice, or before Start, is safe.
func (s *Session) Stop() {
	s.mu.Lock()
	window := s.window
	source := s.source
	done := s.done
	s.window = nil
	s.source = nil
	s.done = nil
	wasRecording := s.recording
	s.recording = false
	s.mu.Unlock()

	if window != nil {
		_ = window.Close()
	}

	if source != nil {
		if err := source.Stop(); err != nil {
			s.logger.Error("stopping source failed", slog.Any("err", err))
		}
		if err := source.Close(); err != nil {
			s.logger.Error("releasing source failed", slog.Any("err", err))
		}
	}

	if done != nil {
		<-done
	}

	if wasRecording {
		s.logger.Info("recording stopped")
	}
}
