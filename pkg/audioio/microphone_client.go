// TLDR; Go itself cannot work with Microphone's well
// BUT it can bind with C-libraries which can do this with a bit of black-magic.
package audioio

import (
	"fmt"
	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog/log"
	"strings"
	"sync"
	"time"

	"github.com/Hushmonday/Echo-hackathon/pkg/input_device"
	"github.com/Hushmonday/Echo-hackathon/pkg/models"
)

func dbg(err error) {
	if err != nil {
		log.Debug().Err(err).Msg("sth non-essential failed")
	}
}

const MyDeviceInputChannels uint32 = 1
const MyDeviceSampleRate uint32 = 44100

// ChunkMilliseconds is how often buffered samples are handed to the recording channel.
const ChunkMilliseconds = 100

type microphone struct {
	device       *malgo.Device
	deviceConfig malgo.DeviceConfig
	malgoContext *malgo.AllocatedContext

	recordingStart time.Time
	recordingChan  chan models.AudioData

	mutex       sync.Mutex // Protects everything below, the data callback runs on a malgo thread.
	pSampleData []byte
	stopped     bool
}

// NewMicrophone inits the microphone device, it can record exactly once.
func NewMicrophone() (result input_device.AudioInputDevice, err error) {
	log.Info().Msg("malgo init context (miniaudio)")
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug().Msg(strings.Replace("malgo devices: "+message, "\n", "", -1))
	})
	if err != nil {
		err = fmt.Errorf("cannot init malgo context %w", err)
		return
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = MyDeviceInputChannels
	deviceConfig.SampleRate = MyDeviceSampleRate
	deviceConfig.Alsa.NoMMap = 1

	result = &microphone{
		deviceConfig: deviceConfig,
		malgoContext: ctx,
		pSampleData:  make([]byte, 0),
	}
	return
}

func (m *microphone) Format() models.AudioFormat {
	return models.AudioFormat{
		SampleRate:  m.deviceConfig.SampleRate,
		NumChannels: m.deviceConfig.Capture.Channels,
		BitDepth:    8 * malgo.SampleSizeInBytes(m.deviceConfig.Capture.Format),
	}
}

// StartRecording can only be called once for NewMicrophone
// Mostly from https://github.com/gen2brain/malgo/blob/master/_examples/capture/capture.go
func (m *microphone) StartRecording(recordingChan chan models.AudioData) (err error) {
	m.recordingChan = recordingChan
	format := m.deviceConfig.Capture.Format
	if sizeInBytes := malgo.SampleSizeInBytes(format); sizeInBytes != 2 {
		return fmt.Errorf("expected 2 bytes per sample for %v, got %d", format, sizeInBytes)
	}

	onRecvFrames := func(pSample2, pSample []byte, framecount uint32) {
		// Empirically, len(pSample) is 480, so for sample rate 44100 it's triggered about every 10ms.
		m.mutex.Lock()
		defer m.mutex.Unlock()
		if m.stopped {
			return
		}
		m.pSampleData = append(m.pSampleData, pSample...)
		m.maybeFlushBuffer(false)
	}

	captureCallbacks := malgo.DeviceCallbacks{
		Data: onRecvFrames,
	}
	m.device, err = malgo.InitDevice(m.malgoContext.Context, m.deviceConfig, captureCallbacks)
	if err != nil {
		m.release()
		err = fmt.Errorf("cannot init malgo device with config %v: %w", m.deviceConfig, err)
		return
	}

	log.Info().Msg("malgo START recording...")
	m.recordingStart = time.Now()
	err = m.device.Start()
	if err != nil {
		m.device.Uninit()
		m.release()
		err = fmt.Errorf("cannot start malgo device %w", err)
		return
	}
	return
}

func (m *microphone) StopRecording() error {
	m.mutex.Lock()
	if m.stopped {
		m.mutex.Unlock()
		return nil
	}
	m.stopped = true
	m.mutex.Unlock()

	log.Info().Dur("recording_duration", time.Since(m.recordingStart)).Msg("malgo STOP recording")
	// Stop waits for the in-flight data callback, so nothing touches pSampleData afterwards.
	dbg(m.device.Stop())
	m.device.Uninit()

	m.mutex.Lock()
	m.maybeFlushBuffer(true)
	m.mutex.Unlock()
	close(m.recordingChan)

	m.release()
	return nil
}

// release frees malgo, after which the microphone cannot record again.
func (m *microphone) release() {
	m.stopped = true
	dbg(m.malgoContext.Uninit())
	m.malgoContext.Free()
}

func sampleCountForMilliseconds(sampleRate uint32, numChannels uint32, milliseconds int) int {
	return int(int64(milliseconds) * int64(sampleRate) * int64(numChannels) / int64(1000))
}

// maybeFlushBuffer sends the buffered samples once they cover ChunkMilliseconds, or always when isEnd.
// Callers hold m.mutex.
func (m *microphone) maybeFlushBuffer(isEnd bool) {
	format := m.Format()
	flushByteSizeThreshold := 2 * sampleCountForMilliseconds(format.SampleRate, format.NumChannels, ChunkMilliseconds)
	if len(m.pSampleData) == 0 || (!isEnd && len(m.pSampleData) < flushByteSizeThreshold) {
		return
	}

	// Keep an odd trailing byte for the next callback, S16 samples must not be split.
	endIndex := len(m.pSampleData) - len(m.pSampleData)%2
	chunk := make([]byte, endIndex)
	copy(chunk, m.pSampleData[:endIndex])
	m.pSampleData = append(m.pSampleData[:0], m.pSampleData[endIndex:]...)
	log.Trace().Int("chunk_byte_size", len(chunk)).Msg("flushing pSample data")

	m.recordingChan <- models.AudioData{
		ByteData: chunk,
		Format:   "pcm_s16le",
		Length:   format.Duration(len(chunk)),
		Trace:    models.NewTrace("microphone_client"),
	}
}
