package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	// 1.0 and -0.5 as little-endian float32
	frame := EncodeFrame([]float32{1.0, -0.5})
	require.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0xbf}, frame)
}

func TestDecodeFrame(t *testing.T) {
	samples, err := DecodeFrame([]byte{0x00, 0x00, 0x80, 0x3f})
	require.NoError(t, err)
	require.Equal(t, []float32{1.0}, samples)

	_, err = DecodeFrame([]byte{0x00, 0x00, 0x80})
	require.Error(t, err)
}
