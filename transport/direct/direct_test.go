package direct

import (
	"context"
	"testing"
	"time"

	scribe "github.com/meetscribe/scribe-go"
	"github.com/stretchr/testify/require"
)

func TestPair(t *testing.T) {
	a, b := Pair()

	require.NoError(t, a.SendMessage([]byte("hello")))
	require.NoError(t, b.SendMessage([]byte("world")))

	require.Equal(t, "hello", string(<-b.Messages()))
	require.Equal(t, "world", string(<-a.Messages()))

	require.NoError(t, a.SendFrame([]byte{1, 2, 3, 4}))
	require.Equal(t, []byte{1, 2, 3, 4}, <-b.Frames())
}

func TestCloseClosesBothEnds(t *testing.T) {
	a, b := Pair()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Close(ctx))

	<-a.Closed()
	<-b.Closed()

	require.ErrorIs(t, b.SendFrame([]byte{0}), scribe.ErrTransportClosed)
	require.ErrorIs(t, a.SendMessage([]byte("x")), scribe.ErrTransportClosed)
}

func TestSendAfterCloseAlwaysFails(t *testing.T) {
	a, b := Pair()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))

	// buffer space is available on every attempt, so any surviving
	// race between the closed signal and the channel send would let
	// some of these through
	for i := 0; i < 100; i++ {
		require.ErrorIs(t, b.SendFrame([]byte{0}), scribe.ErrTransportClosed)
		require.ErrorIs(t, b.SendMessage([]byte("x")), scribe.ErrTransportClosed)
	}
}

func TestClientWithDirectTransport(t *testing.T) {
	local, remote := Pair()

	client := scribe.NewClient(func(ctx context.Context) (scribe.Transport, error) {
		return local, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx))
	require.True(t, client.Connected())

	require.NoError(t, remote.SendMessage([]byte(`{"type":"update","data":{"transcript":"hi"}}`)))

	require.Eventually(t, func() bool {
		return client.State().Snapshot().Transcript == "hi"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, client.Close(ctx))
}
