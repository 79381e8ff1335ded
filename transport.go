package scribe

import (
	"context"
	"errors"
)

// ErrTransportClosed is returned when writing to a transport whose
// connection has already terminated.
var ErrTransportClosed = errors.New("transport: closed")

// Transport is a single established connection carrying binary audio
// frames and JSON text messages. One instance per connection; a
// dropped connection is never reused, the Client dials a new one.
type Transport interface {
	// SendFrame transmits one binary audio frame.
	SendFrame(frame []byte) error

	// SendMessage transmits one text message.
	SendMessage(data []byte) error

	// Frames yields inbound binary frames in arrival order.
	Frames() <-chan []byte

	// Messages yields inbound text messages in arrival order. The
	// channel is closed when the connection ends.
	Messages() <-chan []byte

	// Closed is closed once the connection has terminated, whether by
	// Close or by failure.
	Closed() <-chan struct{}

	Close(ctx context.Context) error
}

// TransportFactory dials a new connection. The Client invokes it for
// the initial connect and for every reconnect attempt.
type TransportFactory func(ctx context.Context) (Transport, error)
