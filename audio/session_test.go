package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeUplink records forwarded frames and lets tests flip the
// connection flag.
type fakeUplink struct {
	connected atomic.Bool
	mu        sync.Mutex
	frames    [][]byte
}

func (f *fakeUplink) Connected() bool { return f.connected.Load() }

func (f *fakeUplink) SendAudio(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
}

func (f *fakeUplink) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeUplink) frame(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[i]
}

// fakeSource counts acquired handles so leak-across-restart bugs show
// up as a counter mismatch.
type fakeSource struct {
	fn      func([]float32)
	tracker *sourceTracker
	started atomic.Bool
}

type sourceTracker struct {
	acquired atomic.Int32
	active   atomic.Int32
	failNext atomic.Bool
}

func (st *sourceTracker) factory() SourceFactory {
	return func(cfg Config, fn func(samples []float32)) (Source, error) {
		if st.failNext.Load() {
			return nil, fmt.Errorf("device busy")
		}
		st.acquired.Add(1)
		st.active.Add(1)
		return &fakeSource{fn: fn, tracker: st}, nil
	}
}

func (s *fakeSource) Start() error {
	s.started.Store(true)
	return nil
}

func (s *fakeSource) Stop() error {
	s.started.Store(false)
	return nil
}

func (s *fakeSource) Close() error {
	s.tracker.active.Add(-1)
	return nil
}

// push simulates the capture callback delivering samples.
func (s *fakeSource) push(samples []float32) {
	if s.started.Load() {
		s.fn(samples)
	}
}

func newTestSession(uplink *fakeUplink, tracker *sourceTracker) *Session {
	return NewSession(Config{WindowSize: 4}, uplink, tracker.factory(), slog.Default())
}

func TestStartWhileDisconnectedAcquiresNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	uplink := &fakeUplink{}
	tracker := &sourceTracker{}
	s := newTestSession(uplink, tracker)

	require.ErrorIs(t, s.Start(), ErrNotConnected)
	require.Equal(t, int32(0), tracker.acquired.Load())
	require.False(t, s.Recording())
}

func TestForwardsFullWindowsWhileRecording(t *testing.T) {
	defer goleak.VerifyNone(t)

	uplink := &fakeUplink{}
	uplink.connected.Store(true)
	tracker := &sourceTracker{}
	s := newTestSession(uplink, tracker)

	require.NoError(t, s.Start())
	require.True(t, s.Recording())

	src := currentSource(t, s)
	src.push([]float32{1, 2, 3, 4})
	src.push([]float32{5, 6})

	require.Eventually(t, func() bool {
		return uplink.frameCount() == 1
	}, time.Second, time.Millisecond)

	samples, err := DecodeFrame(uplink.frame(0))
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3, 4}, samples)

	s.Stop()
	require.False(t, s.Recording())
}

func TestStopStartCycleNeverLeaksASource(t *testing.T) {
	defer goleak.VerifyNone(t)

	uplink := &fakeUplink{}
	uplink.connected.Store(true)
	tracker := &sourceTracker{}
	s := newTestSession(uplink, tracker)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Start())
		require.Equal(t, int32(1), tracker.active.Load(), "at most one active source")
		s.Stop()
		require.Equal(t, int32(0), tracker.active.Load())
	}

	require.Equal(t, int32(3), tracker.acquired.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	uplink := &fakeUplink{}
	tracker := &sourceTracker{}
	s := newTestSession(uplink, tracker)

	// stop before any start must run through cleanly
	s.Stop()
	s.Stop()

	uplink.connected.Store(true)
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
	require.Equal(t, int32(0), tracker.active.Load())
}

func TestDoubleStartRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	uplink := &fakeUplink{}
	uplink.connected.Store(true)
	tracker := &sourceTracker{}
	s := newTestSession(uplink, tracker)

	require.NoError(t, s.Start())
	require.ErrorIs(t, s.Start(), ErrAlreadyRecording)
	require.Equal(t, int32(1), tracker.active.Load())
	s.Stop()
}

func TestSourceFailureLeavesNoPartialState(t *testing.T) {
	defer goleak.VerifyNone(t)

	uplink := &fakeUplink{}
	uplink.connected.Store(true)
	tracker := &sourceTracker{}
	tracker.failNext.Store(true)
	s := newTestSession(uplink, tracker)

	require.Error(t, s.Start())
	require.False(t, s.Recording())

	// a later start must work once the device is available again
	tracker.failNext.Store(false)
	require.NoError(t, s.Start())
	s.Stop()
}

// currentSource digs the fake source out of the session.
func currentSource(t *testing.T, s *Session) *fakeSource {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.source.(*fakeSource)
	require.True(t, ok)
	return src
}
