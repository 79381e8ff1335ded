package audio

import (
	"io"
	"sync"

	"github.com/smallnest/ringbuffer"
)

// Windower is the fixed-size buffering stage between the capture
// callback and the transport: encoded samples go in as they arrive,
// full windows of exactly windowSamples samples come out. Mono in,
// mono out.
type Windower struct {
	b        *ringbuffer.RingBuffer
	winBytes int
	mu       sync.Mutex
	cond     *sync.Cond
	closed   bool
}

// NewWindower creates a windowing stage emitting windows of
// windowSamples samples. The internal ring holds eight windows; the
// capture callback never outruns the forwarder by more than that.
func NewWindower(windowSamples int) *Windower {
	w := &Windower{
		b:        ringbuffer.New(8 * windowSamples * bytesPerSample),
		winBytes: windowSamples * bytesPerSample,
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Write appends encoded samples. Returns io.ErrClosedPipe once the
// stage has been torn down.
func (w *Windower) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, io.ErrClosedPipe
	}

	n, err := w.b.Write(p)
	if n > 0 {
		w.cond.Broadcast()
	}
	return n, err
}

// Next blocks until one full window is buffered and returns it as a
// freshly allocated slice. Returns io.EOF after Close; a trailing
// partial window is discarded.
func (w *Windower) Next() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.b.Length() < w.winBytes && !w.closed {
		w.cond.Wait()
	}

	if w.b.Length() < w.winBytes {
		return nil, io.EOF
	}

	win := make([]byte, w.winBytes)
	if _, err := io.ReadFull(w.b, win); err != nil {
		return nil, err
	}
	return win, nil
}

// Close tears the stage down and wakes any blocked Next. Idempotent.
func (w *Windower) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.cond.Broadcast()
	return nil
}
