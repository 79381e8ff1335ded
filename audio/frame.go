package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// bytesPerSample is the wire size of one raw little-endian float32 PCM
// sample. Frames carry no header and no sequence numbers.
const bytesPerSample = 4

// EncodeFrame packs mono float32 samples into their wire form.
func EncodeFrame(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(s))
	}
	return out
}

// DecodeFrame unpacks a wire frame back into samples. Used by the
// server side (tests and the simulator); the client only encodes.
func DecodeFrame(frame []byte) ([]float32, error) {
	if len(frame)%bytesPerSample != 0 {
		return nil, fmt.Errorf("decode frame: %d bytes is not a whole number of float32 samples", len(frame))
	}

	samples := make([]float32, len(frame)/bytesPerSample)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(frame[i*bytesPerSample:]))
	}
	return samples, nil
}
