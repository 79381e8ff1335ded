// Package direct provides a paired in-memory transport so sessions can
// be exercised in tests without sockets.
package direct

import (
	"context"
	"sync"

	scribe "github.com/meetscribe/scribe-go"
)

// Transport is one end of an in-memory pair. Whatever one end sends,
// the other end receives on the matching channel.
type Transport struct {
	msgIn    <-chan []byte
	msgOut   chan<- []byte
	frameIn  <-chan []byte
	frameOut chan<- []byte
	closed   chan struct{}
	once     *sync.Once
}

func (d *Transport) SendFrame(frame []byte) error {
	return d.send(d.frameOut, frame)
}

func (d *Transport) SendMessage(data []byte) error {
	return d.send(d.msgOut, data)
}

// send fails deterministically once the pair is closed: with buffer
// space available a two-way select would pick a branch at random, so
// closed is checked on its own first.
func (d *Transport) send(out chan<- []byte, data []byte) error {
	select {
	case <-d.closed:
		return scribe.ErrTransportClosed
	default:
	}
	select {
	case <-d.closed:
		return scribe.ErrTransportClosed
	case out <- data:
		return nil
	}
}

func (d *Transport) Frames() <-chan []byte {
	return d.frameIn
}

func (d *Transport) Messages() <-chan []byte {
	return d.msgIn
}

func (d *Transport) Closed() <-chan struct{} {
	return d.closed
}

// Close terminates both ends of the pair.
func (d *Transport) Close(_ context.Context) error {
	d.once.Do(func() {
		close(d.closed)
	})
	return nil
}

var _ scribe.Transport = &Transport{}

// Pair creates two connected transports. Closing either end closes
// both.
func Pair() (*Transport, *Transport) {
	aToB := make(chan []byte, 32)
	bToA := make(chan []byte, 32)
	aFrames := make(chan []byte, 32)
	bFrames := make(chan []byte, 32)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &Transport{
		msgIn:    bToA,
		msgOut:   aToB,
		frameIn:  bFrames,
		frameOut: aFrames,
		closed:   closed,
		once:     once,
	}

	b := &Transport{
		msgIn:    aToB,
		msgOut:   bToA,
		frameIn:  aFrames,
		frameOut: bFrames,
		closed:   closed,
		once:     once,
	}

	return a, b
}
