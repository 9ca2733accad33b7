package models

import (
	"github.com/rs/zerolog/log"
	"time"
)

type Trace struct {
	CreatedAt time.Time
	Creator   string

	ReceivedAt time.Time

	ProcessedAt time.Time
	Processor   string
}

func NewTrace(creator string) Trace {
	return Trace{
		CreatedAt: time.Now(),
		Creator:   creator,
	}
}

func (t Trace) Log() {
	log.Trace().Time("created_at", t.CreatedAt).Str("creator", t.Creator).Time("processed_at", t.ProcessedAt).Str("processor", t.Processor).Dur("dur_to_process", t.ProcessedAt.Sub(t.CreatedAt)).Msgf("tracing")
}

type RecordingState int

const (
	Idle RecordingState = iota
	Recording
)

func (s RecordingState) String() string {
	states := [...]string{
		"idle",
		"recording",
	}

	if s < Idle || s > Recording {
		return "unknown"
	}

	return states[s]
}

// AudioFormat describes raw PCM as delivered by an input device.
type AudioFormat struct {
	SampleRate  uint32
	NumChannels uint32
	BitDepth    int
}

func (f AudioFormat) BytesPerSecond() int {
	return int(f.SampleRate) * int(f.NumChannels) * f.BitDepth / 8
}

// Duration of byteCount bytes of PCM in this format.
func (f AudioFormat) Duration(byteCount int) time.Duration {
	bps := f.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(int64(byteCount) * int64(time.Second) / int64(bps))
}

// AudioData is a single chunk of captured audio.
type AudioData struct {
	ByteData []byte
	Format   string
	Length   time.Duration
	Trace    Trace
}

// AudioArtifact is a finished recording, addressable through URL for as long as it is not released.
type AudioArtifact struct {
	URL         string
	ByteData    []byte
	ContentType string
	FileName    string
	Format      AudioFormat
	Length      time.Duration
	CreatedAt   time.Time
}

func (a *AudioArtifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.ByteData)
}
