package ws

import (
	"context"
	"fmt"
	"testing"
	"time"

	scribe "github.com/meetscribe/scribe-go"
	"github.com/meetscribe/scribe-go/audio"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ctx context.Context) *Server {
	t.Helper()

	srv := NewServer(ServerConfig{
		Addr: "127.0.0.1:0",
		Path: "/ws/audio",
	})
	require.NoError(t, srv.Run(ctx))
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	return srv
}

func TestClientServerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := startServer(t, ctx)

	client, err := Connect(ctx, ClientConfig{Dial: DialConfig{
		URL: fmt.Sprintf("ws://127.0.0.1:%d/ws/audio", srv.Port()),
	}})
	require.NoError(t, err)

	var server scribe.Transport
	select {
	case server = <-srv.Transports():
	case <-ctx.Done():
		t.Fatal("server never saw the connection")
	}

	// audio goes out as a binary frame
	frame := audio.EncodeFrame([]float32{0.25, -0.25})
	require.NoError(t, client.SendFrame(frame))

	select {
	case got := <-server.Frames():
		samples, err := audio.DecodeFrame(got)
		require.NoError(t, err)
		require.Equal(t, []float32{0.25, -0.25}, samples)
	case <-ctx.Done():
		t.Fatal("frame never arrived")
	}

	// updates come back as text frames, in order
	require.NoError(t, server.SendMessage([]byte(`{"type":"update","data":{"transcript":"a"}}`)))
	require.NoError(t, server.SendMessage([]byte(`{"type":"update","data":{"transcript":"b"}}`)))

	require.Equal(t, `{"type":"update","data":{"transcript":"a"}}`, string(<-client.Messages()))
	require.Equal(t, `{"type":"update","data":{"transcript":"b"}}`, string(<-client.Messages()))

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	require.NoError(t, client.Close(closeCtx))
	<-client.Closed()
}

func TestCloseTerminatesPeer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := startServer(t, ctx)

	client, err := Connect(ctx, ClientConfig{Dial: DialConfig{
		URL: fmt.Sprintf("ws://127.0.0.1:%d/ws/audio", srv.Port()),
	}})
	require.NoError(t, err)

	server := <-srv.Transports()

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	require.NoError(t, client.Close(closeCtx))

	select {
	case <-server.Closed():
	case <-ctx.Done():
		t.Fatal("peer never observed the close")
	}

	require.ErrorIs(t, client.SendFrame([]byte{0, 0, 0, 0}), scribe.ErrTransportClosed)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, ClientConfig{Dial: DialConfig{
		URL:            "ws://127.0.0.1:1/ws/audio",
		ConnectTimeout: 500 * time.Millisecond,
	}})
	require.Error(t, err)
}
