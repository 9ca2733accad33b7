package audio_utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"io"
)

const wavBitDepth = 16
const pcmAudioFormat = 1

func dbg(err error) {
	if err != nil {
		log.Debug().Err(err).Msg("sth non-essential failed")
	}
}

// ConvertTwoByteSamplesToWav assumes S16LE encoding (or two bytes per value).
// Empty input still produces a valid, header-only WAV.
func ConvertTwoByteSamplesToWav(byteData []byte, sampleRate uint32, numChannels uint32) (result []byte, err error) {
	if len(byteData)%2 == 1 {
		log.Warn().Int("byte_data_length", len(byteData)).Msg("odd S16 byte count, dropping the last byte")
		byteData = byteData[:len(byteData)-1]
	}

	inputBuffer := &audio.IntBuffer{
		Data: twoByteDataToIntSlice(byteData),
		Format: &audio.Format{
			SampleRate:  int(sampleRate),
			NumChannels: int(numChannels),
		},
		SourceBitDepth: wavBitDepth,
	}
	return convertIntSamplesToWav(inputBuffer)
}

func convertIntSamplesToWav(inputBuffer *audio.IntBuffer) (result []byte, err error) {
	// Create a new in-memory file system
	fs := afero.NewMemMapFs()
	// Create an in-memory file to support io.WriteSeeker needed for NewEncoder which is needed for finalizing headers.
	inMemoryFilename := "in-memory-output.wav"
	inMemoryFile, err := fs.Create(inMemoryFilename)
	if err != nil {
		err = errors.Wrap(err, "cannot create in-memory wav file")
		return
	}
	// We will call Close ourselves.

	iSampleRate := inputBuffer.Format.SampleRate
	iNumChannels := inputBuffer.Format.NumChannels
	wavEncoder := wav.NewEncoder(inMemoryFile, iSampleRate, wavBitDepth, iNumChannels, pcmAudioFormat)
	log.Debug().Int("int_data_length", len(inputBuffer.Data)).Int("sample_rate", iSampleRate).Int("bit_depth", wavBitDepth).Int("num_channels", iNumChannels).Msg("encoding int stream output as a wav")
	// Write also emits the headers, so it is required even for an empty buffer.
	if err = wavEncoder.Write(inputBuffer); err != nil {
		err = fmt.Errorf("cannot encode byte output as wav %w", err)
		return
	}

	// Close the wavEncoder to flush any remaining data and finalize the WAV file
	if err = wavEncoder.Close(); err != nil {
		err = fmt.Errorf("cannot finish wav encoding %w", err)
		return
	}

	// We close and re-open the file so we can properly read-all of its contents.
	dbg(inMemoryFile.Close())
	inMemoryFileReopen, err := fs.Open(inMemoryFilename)
	if err != nil {
		err = errors.Wrap(err, "cannot reopen in-memory wav file")
		return
	}
	defer func() { dbg(inMemoryFileReopen.Close()) }()
	result, err = io.ReadAll(inMemoryFileReopen)
	if err == nil && len(result) == 0 {
		err = fmt.Errorf("wav output is empty")
	}
	return
}

// DecodeWav reads an entire WAV file into memory.
func DecodeWav(wavData []byte) (*audio.IntBuffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(wavData))
	if !decoder.IsValidFile() {
		return nil, errors.New("not a valid wav file")
	}
	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode wav pcm data")
	}
	log.Debug().Int("int_data_length", len(buffer.Data)).Uint32("sample_rate", decoder.SampleRate).Uint16("num_channels", decoder.NumChans).Uint16("bit_depth", decoder.BitDepth).Msg("decoded wav")
	return buffer, nil
}

// IntBufferToS16LE is the inverse of twoByteDataToIntSlice, used to feed speakers.
func IntBufferToS16LE(buffer *audio.IntBuffer) []byte {
	result := make([]byte, 2*len(buffer.Data))
	for i, value := range buffer.Data {
		binary.LittleEndian.PutUint16(result[2*i:], uint16(int16(value)))
	}
	return result
}

func twoByteDataToIntSlice(audioData []byte) []int {
	intData := make([]int, len(audioData)/2)
	for i := 0; i+1 < len(audioData); i += 2 {
		// Convert the pCapturedSamples byte slice to int16 slice for FormatS16 as we go
		value := int(int16(binary.LittleEndian.Uint16(audioData[i : i+2])))
		intData[i/2] = value
	}
	return intData
}
