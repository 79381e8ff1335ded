package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	scribe "github.com/meetscribe/scribe-go"
)

// WebsocketTransport carries audio as binary frames and update
// messages as text frames over one websocket connection.
type WebsocketTransport struct {
	conn         *websocket.Conn
	msgIn        chan []byte
	frameIn      chan []byte
	msgOut       chan wsMessage
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	logger       *slog.Logger
}

func (w *WebsocketTransport) SendFrame(frame []byte) error {
	return w.enqueue(wsMessage{mt: websocket.BinaryMessage, data: frame})
}

func (w *WebsocketTransport) SendMessage(data []byte) error {
	return w.enqueue(wsMessage{mt: websocket.TextMessage, data: data})
}

// enqueue checks done on its own first so a send on a terminated
// transport fails deterministically instead of racing the write loop's
// buffer.
func (w *WebsocketTransport) enqueue(msg wsMessage) error {
	select {
	case <-w.done:
		return scribe.ErrTransportClosed
	default:
	}
	select {
	case <-w.done:
		return scribe.ErrTransportClosed
	case w.msgOut <- msg:
		return nil
	}
}

func (w *WebsocketTransport) Frames() <-chan []byte {
	return w.frameIn
}

func (w *WebsocketTransport) Messages() <-chan []byte {
	return w.msgIn
}

func (w *WebsocketTransport) Closed() <-chan struct{} {
	return w.done
}

func (w *WebsocketTransport) Close(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close failed: %w", ctx.Err())
	case w.msgOut <- wsMessage{
		mt:   websocket.CloseMessage,
		data: websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Closed"),
	}:
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("close failed: %w", ctx.Err())
	case <-w.done:
		return nil
	}
}

func (w *WebsocketTransport) processConnection(ctx context.Context) {
	defer func() {
		if err := w.conn.Close(); err != nil {
			w.logger.Debug("connection close failed", slog.Any("err", err))
		}

		w.logger.Debug("transport processing done")
	}()

	// read messages from the connection: text frames are update
	// messages delivered in arrival order, binary frames are audio
	go func() {
		defer w.closeOnce.Do(func() {
			close(w.done)
		})
		defer close(w.msgIn)

		for {
			mt, data, err := w.conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					w.logger.Debug("connection was closed by other peer", slog.Any("err", err))
				} else {
					w.logger.Debug("read failed", slog.Any("err", err))
				}
				return
			}

			switch mt {
			case websocket.TextMessage:
				select {
				case w.msgIn <- data:
				case <-w.done:
					return
				}
			case websocket.BinaryMessage:
				select {
				case w.frameIn <- data:
				default:
					// audio frames are lossy, a slow consumer drops
					w.logger.Debug("dropping inbound frame", slog.Int("len", len(data)))
				}
			}
		}
	}()

	pingTicker := time.NewTicker(w.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-ctx.Done():
			w.closeOnce.Do(func() {
				close(w.done)
			})

		case <-pingTicker.C:
			if err := w.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				w.logger.Debug("ping failed", slog.Any("err", err))
			}

		case msg := <-w.msgOut:
			if isControl(msg.mt) {
				if err := w.conn.WriteControl(msg.mt, msg.data, time.Now().Add(msg.controlTimeout())); err != nil {
					w.logger.Debug("write control failed", slog.Any("err", err))
					return
				}
			} else {
				if err := w.conn.WriteMessage(msg.mt, msg.data); err != nil {
					w.logger.Debug("write failed", slog.Any("err", err))
					return
				}
			}
		}
	}
}

var _ scribe.Transport = &WebsocketTransport{}

func newTransport(conn *websocket.Conn, pingInterval time.Duration, logger *slog.Logger) *WebsocketTransport {
	conn.SetPingHandler(func(message string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(1*time.Second))
		if err == websocket.ErrCloseSent {
			return nil
		} else if e, ok := err.(net.Error); ok && e.Temporary() {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(string) error {
		return nil
	})

	if pingInterval == 0 {
		pingInterval = 10 * time.Second
	}

	return &WebsocketTransport{
		conn:         conn,
		msgIn:        make(chan []byte, 16),
		frameIn:      make(chan []byte, 32),
		msgOut:       make(chan wsMessage, 1),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
		logger:       logger,
	}
}
