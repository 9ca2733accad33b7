// Package recorder owns the capture session lifecycle: idle -> recording -> idle,
// turning the chunks of each session into a single WAV artifact kept in a blob store.
package recorder

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Hushmonday/Echo-hackathon/pkg/audio_utils"
	"github.com/Hushmonday/Echo-hackathon/pkg/blobstore"
	"github.com/Hushmonday/Echo-hackathon/pkg/input_device"
	"github.com/Hushmonday/Echo-hackathon/pkg/models"
)

const (
	ArtifactContentType = "audio/wav"
	ArtifactFileName    = "recording.wav"

	// recordingChanSize leaves the malgo callback plenty of room, about 20 minutes of 100ms chunks.
	recordingChanSize = 12000
)

var ErrAlreadyRecording = errors.New("a recording session is already active")

type session struct {
	device    input_device.AudioInputDevice
	format    models.AudioFormat
	startedAt time.Time
	collected chan [][]byte
}

type Recorder struct {
	openDevice input_device.Factory
	blobs      *blobstore.Store

	mutex    sync.Mutex // Protects everything below
	current  *session
	artifact *models.AudioArtifact
}

func New(openDevice input_device.Factory, blobs *blobstore.Store) *Recorder {
	return &Recorder{
		openDevice: openDevice,
		blobs:      blobs,
	}
}

func (r *Recorder) State() models.RecordingState {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.current != nil {
		return models.Recording
	}
	return models.Idle
}

// Artifact is the latest finished recording, nil before the first Stop.
func (r *Recorder) Artifact() *models.AudioArtifact {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.artifact
}

// Start opens the input device and begins collecting chunks.
// Device failures (no permission, no device) are returned and leave the recorder idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.current != nil {
		return ErrAlreadyRecording
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	device, err := r.openDevice()
	if err != nil {
		return errors.Wrap(err, "cannot open input device")
	}

	recordingChan := make(chan models.AudioData, recordingChanSize)
	if err := device.StartRecording(recordingChan); err != nil {
		return errors.Wrap(err, "cannot start recording")
	}

	s := &session{
		device:    device,
		format:    device.Format(),
		startedAt: time.Now(),
		collected: make(chan [][]byte, 1),
	}
	go collectChunksRoutine(recordingChan, s.collected)
	r.current = s

	log.Info().Uint32("sample_rate", s.format.SampleRate).Uint32("num_channels", s.format.NumChannels).Msg("recording started")
	return nil
}

// collectChunksRoutine lives exactly as long as a capture session.
func collectChunksRoutine(recordingChan <-chan models.AudioData, collected chan<- [][]byte) {
	chunks := make([][]byte, 0)
	for audioData := range recordingChan {
		if len(audioData.ByteData) == 0 {
			continue
		}
		audioData.Trace.ReceivedAt = time.Now()
		chunks = append(chunks, audioData.ByteData)
		audioData.Trace.ProcessedAt = time.Now()
		audioData.Trace.Processor = "recorder"
		audioData.Trace.Log()
	}
	collected <- chunks
}

// Stop ends the session and returns the new artifact, which replaces (and releases) the previous one.
// Without an active session it does nothing and returns (nil, nil).
func (r *Recorder) Stop() (*models.AudioArtifact, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.current == nil {
		log.Debug().Msg("stop requested without an active recording")
		return nil, nil
	}
	s := r.current
	r.current = nil

	if err := s.device.StopRecording(); err != nil {
		log.Error().Err(err).Msg("input device did not stop cleanly")
	}
	chunks := <-s.collected
	pcm := bytes.Join(chunks, nil)

	wavData, err := audio_utils.ConvertTwoByteSamplesToWav(pcm, s.format.SampleRate, s.format.NumChannels)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode recording")
	}
	url, err := r.blobs.Put(wavData, ArtifactContentType)
	if err != nil {
		return nil, err
	}

	r.releaseArtifact()
	r.artifact = &models.AudioArtifact{
		URL:         url,
		ByteData:    wavData,
		ContentType: ArtifactContentType,
		FileName:    ArtifactFileName,
		Format:      s.format,
		Length:      s.format.Duration(len(pcm)),
		CreatedAt:   time.Now(),
	}
	log.Info().Int("chunk_count", len(chunks)).Int("wav_byte_size", len(wavData)).Dur("audio_length", r.artifact.Length).Dur("session_duration", time.Since(s.startedAt)).Str("url", url).Msg("recording stopped")
	return r.artifact, nil
}

// Close stops an active session and releases the current artifact.
func (r *Recorder) Close() error {
	if _, err := r.Stop(); err != nil {
		log.Warn().Err(err).Msg("recording in progress could not be finished on close")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.releaseArtifact()
	r.artifact = nil
	return nil
}

// releaseArtifact expects r.mutex to be held.
func (r *Recorder) releaseArtifact() {
	if r.artifact == nil {
		return
	}
	if err := r.blobs.Revoke(r.artifact.URL); err != nil {
		log.Debug().Err(err).Str("url", r.artifact.URL).Msg("cannot revoke previous recording")
	}
}
