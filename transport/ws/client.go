package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	scribe "github.com/meetscribe/scribe-go"
)

// Connect dials the websocket endpoint and returns the established
// transport.
func Connect(ctx context.Context, config ClientConfig) (*WebsocketTransport, error) {
	config.Defaults()

	logger := slog.Default().With(
		slog.String("transport", "websocket"),
		slog.String("component", "client"),
		slog.String("endpoint", config.Dial.URL),
	)

	logger.Debug("connecting to websocket endpoint")

	conn, resp, err := config.Dial.doDial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", config.Dial.URL, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	logger = logger.With(
		slog.String("remote_addr", conn.RemoteAddr().String()),
	)

	logger.Debug("websocket connection established")

	t := newTransport(conn, config.PingInterval, logger)

	go t.processConnection(ctx)

	return t, nil
}

// Client wraps Connect into a transport factory for scribe.NewClient.
func Client(config ClientConfig) scribe.TransportFactory {
	return func(ctx context.Context) (scribe.Transport, error) {
		return Connect(ctx, config)
	}
}
