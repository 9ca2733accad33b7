package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hushmonday/Echo-hackathon/pkg/audio_utils"
	"github.com/Hushmonday/Echo-hackathon/pkg/blobstore"
	"github.com/Hushmonday/Echo-hackathon/pkg/input_device"
	"github.com/Hushmonday/Echo-hackathon/pkg/models"
)

// fakeDevice emits its chunks on StartRecording and closes the channel on StopRecording.
type fakeDevice struct {
	chunks   [][]byte
	startErr error

	recordingChan chan models.AudioData
	stopCalls     int
}

func (f *fakeDevice) StartRecording(recordingChan chan models.AudioData) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.recordingChan = recordingChan
	for _, chunk := range f.chunks {
		recordingChan <- models.AudioData{ByteData: chunk, Format: "pcm_s16le"}
	}
	return nil
}

func (f *fakeDevice) StopRecording() error {
	f.stopCalls++
	if f.stopCalls == 1 {
		close(f.recordingChan)
	}
	return nil
}

func (f *fakeDevice) Format() models.AudioFormat {
	return models.AudioFormat{SampleRate: 16000, NumChannels: 1, BitDepth: 16}
}

func factoryOf(devices ...*fakeDevice) (input_device.Factory, *int) {
	opened := 0
	return func() (input_device.AudioInputDevice, error) {
		device := devices[opened]
		opened++
		return device, nil
	}, &opened
}

func TestRecorder_StartStopYieldsOnePlayableArtifact(t *testing.T) {
	device := &fakeDevice{chunks: [][]byte{{1, 0, 2, 0}, {3, 0}, {}, {4, 0}}}
	factory, _ := factoryOf(device)
	blobs := blobstore.New()
	r := New(factory, blobs)

	assert.Equal(t, models.Idle, r.State())
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, models.Recording, r.State())

	artifact, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.Equal(t, models.Idle, r.State())
	assert.Equal(t, 1, blobs.Len())
	assert.Equal(t, artifact, r.Artifact())
	assert.Equal(t, ArtifactContentType, artifact.ContentType)
	assert.Equal(t, ArtifactFileName, artifact.FileName)

	stored, contentType, err := blobs.Get(artifact.URL)
	require.NoError(t, err)
	assert.Equal(t, ArtifactContentType, contentType)
	assert.Equal(t, artifact.ByteData, stored)

	decoded, err := audio_utils.DecodeWav(stored)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, decoded.Data)
	assert.Equal(t, 16000, decoded.Format.SampleRate)
}

func TestRecorder_StopWithoutStartIsNoop(t *testing.T) {
	factory, opened := factoryOf()
	blobs := blobstore.New()
	r := New(factory, blobs)

	artifact, err := r.Stop()
	assert.NoError(t, err)
	assert.Nil(t, artifact)
	assert.Nil(t, r.Artifact())
	assert.Equal(t, models.Idle, r.State())
	assert.Equal(t, 0, blobs.Len())
	assert.Equal(t, 0, *opened)
}

func TestRecorder_EmptySessionStillYieldsArtifact(t *testing.T) {
	factory, _ := factoryOf(&fakeDevice{})
	r := New(factory, blobstore.New())

	require.NoError(t, r.Start(context.Background()))
	artifact, err := r.Stop()
	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.GreaterOrEqual(t, artifact.Size(), 44)
	assert.Equal(t, "RIFF", string(artifact.ByteData[:4]))
}

func TestRecorder_SecondStartIsRejected(t *testing.T) {
	factory, opened := factoryOf(&fakeDevice{}, &fakeDevice{})
	r := New(factory, blobstore.New())

	require.NoError(t, r.Start(context.Background()))
	err := r.Start(context.Background())
	assert.True(t, errors.Is(err, ErrAlreadyRecording))
	assert.Equal(t, 1, *opened)
	assert.Equal(t, models.Recording, r.State())
}

func TestRecorder_StartFailureLeavesIdle(t *testing.T) {
	denied := errors.New("permission denied")
	factory, _ := factoryOf(&fakeDevice{startErr: denied})
	r := New(factory, blobstore.New())

	err := r.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, denied))
	assert.Equal(t, models.Idle, r.State())
}

func TestRecorder_OpenFailureLeavesIdle(t *testing.T) {
	noDevice := errors.New("no capture device")
	r := New(func() (input_device.AudioInputDevice, error) { return nil, noDevice }, blobstore.New())

	err := r.Start(context.Background())
	assert.True(t, errors.Is(err, noDevice))
	assert.Equal(t, models.Idle, r.State())
}

func TestRecorder_NewRecordingReleasesPrevious(t *testing.T) {
	factory, _ := factoryOf(&fakeDevice{chunks: [][]byte{{1, 0}}}, &fakeDevice{chunks: [][]byte{{2, 0}}})
	blobs := blobstore.New()
	r := New(factory, blobs)

	require.NoError(t, r.Start(context.Background()))
	first, err := r.Stop()
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	second, err := r.Stop()
	require.NoError(t, err)

	assert.NotEqual(t, first.URL, second.URL)
	assert.Equal(t, 1, blobs.Len())
	_, _, err = blobs.Get(first.URL)
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))
	_, _, err = blobs.Get(second.URL)
	assert.NoError(t, err)
}

func TestRecorder_CloseStopsSessionAndReleases(t *testing.T) {
	device := &fakeDevice{chunks: [][]byte{{1, 0}}}
	factory, _ := factoryOf(device)
	blobs := blobstore.New()
	r := New(factory, blobs)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Close())

	assert.Equal(t, 1, device.stopCalls)
	assert.Equal(t, models.Idle, r.State())
	assert.Nil(t, r.Artifact())
	assert.Equal(t, 0, blobs.Len())
}

func TestRecorder_StartHonoursCancelledContext(t *testing.T) {
	factory, opened := factoryOf(&fakeDevice{})
	r := New(factory, blobstore.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Start(ctx), context.Canceled)
	assert.Equal(t, 0, *opened)
}
