package input_device

import "github.com/Hushmonday/Echo-hackathon/pkg/models"

// AudioInputDevice is a single capture session.
//   - StartRecording begins delivering raw PCM chunks into recordingChan.
//   - StopRecording flushes what is left, then CLOSES recordingChan. Calling it twice is harmless.
type AudioInputDevice interface {
	StartRecording(recordingChan chan models.AudioData) error
	StopRecording() error
	Format() models.AudioFormat
}

// Factory opens a fresh device, e.g. asking for microphone access.
type Factory func() (AudioInputDevice, error)
