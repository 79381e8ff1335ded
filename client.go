// Package scribe implements the streaming client side of a live
// meeting-transcription service: it forwards captured audio frames to
// the server over a persistent connection and folds the server's
// incremental update messages into a local meeting view.
package scribe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meetscribe/scribe-go/proto"
)

// ErrClientClosed is returned by Connect after the client has been
// closed.
var ErrClientClosed = fmt.Errorf("client: closed")

// UpdateHandler receives every parsed inbound message, in arrival
// order, before any later handler registered after it.
type UpdateHandler func(u *proto.Update)

// ConnectHandler fires after a connection (initial or reconnect) has
// been established.
type ConnectHandler func()

// DisconnectHandler fires when a connection attempt fails or an
// established connection drops. err carries the dial error when known.
type DisconnectHandler func(err error)

// Client owns one logical session against the transcription server:
// a transport dialed from a factory, the registered listeners and the
// meeting state. It also owns the reconnection policy; the transport
// itself never reconnects.
//
// On an unexpected disconnect the client schedules a new dial after a
// fixed delay, up to a bounded number of consecutive attempts. The
// counter resets on success. Once the attempts are exhausted the
// client stays disconnected for good, surfaced only through
// Connected() and the disconnect handlers. An explicit Close cancels
// any pending attempt; no handler fires after Close returns.
type Client struct {
	id     string
	logger *slog.Logger
	dial   TransportFactory
	retry  RetryPolicy
	state  *MeetingState

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	transport  Transport
	connected  bool
	attempts   int
	retryTimer *time.Timer

	// dispatchMu serializes handler invocation so that closed acts as
	// a fence: once Close has held it, no handler runs again.
	dispatchMu sync.Mutex
	closed     atomic.Bool

	onUpdate     []UpdateHandler
	onConnect    []ConnectHandler
	onDisconnect []DisconnectHandler
}

// NewClient creates a client for the given transport factory. The
// client is idle until Connect is called.
func NewClient(dial TransportFactory, opts ...Option) *Client {
	o := &clientOptions{}
	withOptions(withDefaults(), withOptions(opts...))(o)

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:     o.id,
		logger: o.logger.With(slog.String("component", "client"), slog.String("id", o.id)),
		dial:   dial,
		retry:  o.retry,
		state:  NewMeetingState(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the session ID.
func (c *Client) ID() string {
	return c.id
}

// State returns the meeting state owned by this client.
func (c *Client) State() *MeetingState {
	return c.state
}

// OnUpdate registers a listener for inbound messages. Listeners are
// invoked in registration order, messages are delivered in arrival
// order. Registration is not safe once Connect has been called.
func (c *Client) OnUpdate(h UpdateHandler) {
	c.onUpdate = append(c.onUpdate, h)
}

func (c *Client) OnConnect(h ConnectHandler) {
	c.onConnect = append(c.onConnect, h)
}

func (c *Client) OnDisconnect(h DisconnectHandler) {
	c.onDisconnect = append(c.onDisconnect, h)
}

// Connected reports whether the transport is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect dials the server. A failed dial is returned to the caller
// and additionally reported through the disconnect handlers, and the
// retry schedule starts just as it would after a dropped connection.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	t, err := c.dial(ctx)
	if err != nil {
		c.logger.Warn("connect failed", slog.Any("err", err))
		c.dispatchDisconnect(err)
		c.scheduleReconnect()
		return err
	}

	c.adopt(t)
	return nil
}

// adopt installs a freshly dialed transport, resets the attempt
// counter and starts the read loop.
func (c *Client) adopt(t Transport) {
	c.mu.Lock()
	// closed is checked under mu so a dial racing an explicit Close
	// cannot install its transport after Close drained the client
	if c.closed.Load() {
		c.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = t.Close(ctx)
		return
	}
	c.transport = t
	c.connected = true
	c.attempts = 0
	c.state.SetConnected(true)
	c.mu.Unlock()

	c.dispatchConnect()

	go c.readLoop(t)
}

// SendAudio forwards one binary audio frame. While the connection is
// not open the frame is silently dropped: no buffering, no error.
func (c *Client) SendAudio(frame []byte) {
	c.mu.Lock()
	t, open := c.transport, c.connected
	c.mu.Unlock()

	if !open || t == nil {
		return
	}

	if err := t.SendFrame(frame); err != nil {
		// the read loop observes the dead connection and handles it
		c.logger.Debug("send frame failed", slog.Any("err", err))
	}
}

// Close shuts the session down: any pending reconnect attempt is
// cancelled, the transport is released and no handler is invoked
// after Close returns.
func (c *Client) Close(ctx context.Context) error {
	c.closed.Store(true)
	c.cancel()

	c.mu.Lock()
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	t := c.transport
	c.transport = nil
	c.connected = false
	c.mu.Unlock()

	c.state.SetConnected(false)

	// fence: any handler running right now finishes before we return
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	if t == nil {
		return nil
	}
	return t.Close(ctx)
}

func (c *Client) readLoop(t Transport) {
	msgs := t.Messages()
	for {
		select {
		case <-t.Closed():
			c.handleDisconnect(nil)
			return
		case data, ok := <-msgs:
			if !ok {
				c.handleDisconnect(nil)
				return
			}

			u, err := proto.ParseUpdate(data)
			if err != nil {
				// discard, the handler chain never sees it
				c.logger.Error("discarding malformed message", slog.Any("err", err))
				continue
			}

			c.dispatchUpdate(u)
		}
	}
}

// handleDisconnect reacts to an unexpectedly terminated connection.
// After an explicit Close it is a no-op.
func (c *Client) handleDisconnect(err error) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	c.transport = nil
	c.connected = false
	c.mu.Unlock()

	c.state.SetConnected(false)
	c.logger.Info("disconnected", slog.Any("err", err))
	c.dispatchDisconnect(err)
	c.scheduleReconnect()
}

// scheduleReconnect arms the retry timer unless the consecutive
// attempt budget is spent.
func (c *Client) scheduleReconnect() {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempts >= c.retry.MaxAttempts {
		c.logger.Warn("reconnect attempts exhausted, staying disconnected",
			slog.Int("attempts", c.attempts))
		return
	}

	c.attempts++
	attempt := c.attempts
	c.logger.Info("scheduling reconnect",
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", c.retry.MaxAttempts),
		slog.Duration("delay", c.retry.Delay))

	c.retryTimer = time.AfterFunc(c.retry.Delay, c.reconnect)
}

func (c *Client) reconnect() {
	if c.closed.Load() {
		return
	}

	t, err := c.dial(c.ctx)
	if err != nil {
		c.logger.Warn("reconnect failed", slog.Any("err", err))
		c.dispatchDisconnect(err)
		c.scheduleReconnect()
		return
	}

	c.logger.Info("reconnected")
	c.adopt(t)
}

func (c *Client) dispatchUpdate(u *proto.Update) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if c.closed.Load() {
		return
	}

	c.state.Apply(u)
	for _, h := range c.onUpdate {
		h(u)
	}
}

func (c *Client) dispatchConnect() {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if c.closed.Load() {
		return
	}

	for _, h := range c.onConnect {
		h()
	}
}

func (c *Client) dispatchDisconnect(err error) {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	if c.closed.Load() {
		return
	}

	for _, h := range c.onDisconnect {
		h(err)
	}
}
