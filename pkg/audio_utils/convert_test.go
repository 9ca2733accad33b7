package audio_utils

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s16Bytes(samples ...int16) []byte {
	result := make([]byte, 2*len(samples))
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(result[2*i:], uint16(sample))
	}
	return result
}

func TestConvertTwoByteSamplesToWav_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1200, -1200, 42}
	wavData, err := ConvertTwoByteSamplesToWav(s16Bytes(samples...), 44100, 1)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(wavData[:4]))
	assert.Equal(t, "WAVE", string(wavData[8:12]))

	decoded, err := DecodeWav(wavData)
	require.NoError(t, err)
	assert.Equal(t, 44100, decoded.Format.SampleRate)
	assert.Equal(t, 1, decoded.Format.NumChannels)
	require.Len(t, decoded.Data, len(samples))
	for i, sample := range samples {
		assert.Equal(t, int(sample), decoded.Data[i], "sample %d", i)
	}

	assert.Equal(t, s16Bytes(samples...), IntBufferToS16LE(decoded))
}

func TestConvertTwoByteSamplesToWav_EmptyInputIsHeaderOnly(t *testing.T) {
	wavData, err := ConvertTwoByteSamplesToWav(nil, 44100, 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(wavData), 44)
	assert.Equal(t, "RIFF", string(wavData[:4]))
}

func TestConvertTwoByteSamplesToWav_OddByteCount(t *testing.T) {
	data := append(s16Bytes(5, 6), 0x7f)
	wavData, err := ConvertTwoByteSamplesToWav(data, 16000, 1)
	require.NoError(t, err)

	decoded, err := DecodeWav(wavData)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, decoded.Data)
}

func TestDecodeWav_RejectsGarbage(t *testing.T) {
	_, err := DecodeWav([]byte("definitely not a wav file, just some text"))
	assert.Error(t, err)
}
