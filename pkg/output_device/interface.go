package output_device

import (
	"io"
	"sync"
)

// AudioOutputDevice plays S16LE PCM; there is at most one playback at a time.
type AudioOutputDevice interface {
	Play(audioOutput io.Reader) (*sync.WaitGroup, error)
	Stop() error
}
