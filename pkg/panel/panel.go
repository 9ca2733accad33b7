// Package panel is the recorder/uploader panel: every user command maps onto one method,
// and results are surfaced through a Display.
package panel

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Hushmonday/Echo-hackathon/pkg/ai"
	"github.com/Hushmonday/Echo-hackathon/pkg/audio_utils"
	"github.com/Hushmonday/Echo-hackathon/pkg/backend"
	"github.com/Hushmonday/Echo-hackathon/pkg/blobstore"
	"github.com/Hushmonday/Echo-hackathon/pkg/models"
	"github.com/Hushmonday/Echo-hackathon/pkg/output_device"
	"github.com/Hushmonday/Echo-hackathon/pkg/recorder"
)

const (
	DemoMeetingID  = "demo"
	DemoTranscript = "Demo transcript text"
	DemoMode       = "meeting"

	DemoExportSourceID = "demo-note"
	DemoExportFormat   = "pdf"
	DemoExportContent  = "This is a demo PDF exported from Echo."

	WriterDemoInput     = "Generate a meeting action plan for: Discuss project milestones and assign tasks."
	SummarizerDemoInput = "Project kickoff meeting transcript: Discussed goals, assigned tasks, set deadlines."
)

const (
	WriterCallingStatus      = "Calling Writer API..."
	SummarizerCallingStatus  = "Calling Summarizer API..."
	TranscriberCallingStatus = "Calling Transcription API..."
	WriterUnavailable        = "Writer API is not available."
	SummarizerUnavailable    = "Summarizer API is not available."
	TranscriberUnavailable   = "Transcription API is not available."
)

var (
	ErrNoRecording          = errors.New("there is no recording yet")
	ErrNoUpload             = errors.New("no audio has been uploaded yet")
	ErrPlaybackUnavailable  = errors.New("no output device for playback")
	ErrPanelClosed          = errors.New("panel is closed")
	defaultSummarizeOptions = ai.SummarizeOptions{Type: "key-points", Format: "markdown", MaxTokens: 400}
)

// Display is how results reach the user.
type Display interface {
	// Alert shows a blocking, one-off message.
	Alert(message string)
	// OpenURL opens a document, e.g. in a browser.
	OpenURL(url string) error
	// ShowResult replaces the on-panel AI result text.
	ShowResult(text string)
}

type Panel struct {
	recorder     *recorder.Recorder
	blobs        *blobstore.Store
	backend      *backend.Client
	capabilities ai.Capabilities
	display      Display
	speakers     output_device.AudioOutputDevice

	mutex        sync.Mutex // Protects everything below
	aiResult     string
	lastUploadID string
	closed       bool
}

// New wires the panel, speakers may be nil when there is no output device.
func New(rec *recorder.Recorder, blobs *blobstore.Store, client *backend.Client, capabilities ai.Capabilities, display Display, speakers output_device.AudioOutputDevice) *Panel {
	return &Panel{
		recorder:     rec,
		blobs:        blobs,
		backend:      client,
		capabilities: capabilities,
		display:      display,
		speakers:     speakers,
	}
}

func (p *Panel) State() models.RecordingState {
	return p.recorder.State()
}

// AIResult is the text last written by an AI demo.
func (p *Panel) AIResult() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.aiResult
}

func (p *Panel) setAIResult(text string) {
	p.mutex.Lock()
	p.aiResult = text
	p.mutex.Unlock()
	p.display.ShowResult(text)
}

func (p *Panel) StartRecording(ctx context.Context) error {
	if p.isClosed() {
		return ErrPanelClosed
	}
	return p.recorder.Start(ctx)
}

// StopRecording is a no-op without an active recording.
func (p *Panel) StopRecording() error {
	artifact, err := p.recorder.Stop()
	if err != nil {
		return err
	}
	if artifact == nil {
		return nil
	}
	p.display.Alert(fmt.Sprintf("Recorded %s (%s, %d bytes)", artifact.URL, artifact.Length, artifact.Size()))
	return nil
}

// PlayRecording blocks until the current recording has been played.
func (p *Panel) PlayRecording() error {
	if p.speakers == nil {
		return ErrPlaybackUnavailable
	}
	artifact := p.recorder.Artifact()
	if artifact == nil {
		return ErrNoRecording
	}
	wavData, _, err := p.blobs.Get(artifact.URL)
	if err != nil {
		return err
	}
	buffer, err := audio_utils.DecodeWav(wavData)
	if err != nil {
		return err
	}

	waitTilDone, err := p.speakers.Play(bytes.NewReader(audio_utils.IntBufferToS16LE(buffer)))
	if err != nil {
		return errors.Wrap(err, "cannot play recording")
	}
	if waitTilDone != nil {
		waitTilDone.Wait()
	}
	return nil
}

// UploadAudio re-reads the recording through its reference and sends it to the demo meeting.
func (p *Panel) UploadAudio(ctx context.Context) error {
	artifact := p.recorder.Artifact()
	if artifact == nil {
		return ErrNoRecording
	}
	data, contentType, err := p.blobs.Get(artifact.URL)
	if err != nil {
		return err
	}

	result, raw, err := p.backend.UploadAudio(ctx, DemoMeetingID, artifact.FileName, contentType, data)
	if err != nil {
		return err
	}
	if result.TranscribeJobID != "" {
		p.mutex.Lock()
		p.lastUploadID = result.TranscribeJobID
		p.mutex.Unlock()
	}
	log.Info().Str("transcribe_job_id", result.TranscribeJobID).Str("uploaded", result.Uploaded).Msg("audio uploaded")
	p.display.Alert("Uploaded: " + string(raw))
	return nil
}

// GenerateSummary summarizes the fixed demo transcript, not the recording.
func (p *Panel) GenerateSummary(ctx context.Context) error {
	result, raw, err := p.backend.Summarize(ctx, models.SummarizeRequest{Transcript: DemoTranscript, Mode: DemoMode})
	if err != nil {
		return err
	}
	p.alertSummary("Summary", result, raw)
	return nil
}

func (p *Panel) GenerateMeetingSummary(ctx context.Context) error {
	result, raw, err := p.backend.SummarizeMeeting(ctx, DemoMeetingID, DemoMode)
	if err != nil {
		return err
	}
	p.alertSummary("Meeting summary", result, raw)
	return nil
}

func (p *Panel) alertSummary(title string, result models.SummaryResponse, raw []byte) {
	if result.ContentMd == "" && models.HasError(result.Error) {
		p.display.Alert(title + " error: " + string(raw))
		return
	}
	p.display.Alert(title + ": " + result.ContentMd)
}

// CreateExport opens the exported document when the response has a url,
// only alerts when it has an error, and does nothing otherwise.
func (p *Panel) CreateExport(ctx context.Context) error {
	result, raw, err := p.backend.ExportPDF(ctx, models.ExportRequest{
		SourceID: DemoExportSourceID,
		Format:   DemoExportFormat,
		Content:  DemoExportContent,
	})
	if err != nil {
		return err
	}

	switch {
	case result.URL != "":
		log.Info().Str("url", result.URL).Str("export_id", result.ExportID).Msg("opening export")
		if err := p.display.OpenURL(result.URL); err != nil {
			return errors.Wrapf(err, "cannot open %s", result.URL)
		}
	case models.HasError(result.Error):
		p.display.Alert("Export error: " + string(raw))
	default:
		log.Warn().Str("response", string(raw)).Msg("export response has neither url nor error")
	}
	return nil
}

// CheckTranscription shows the transcription of the last upload.
func (p *Panel) CheckTranscription(ctx context.Context) error {
	p.mutex.Lock()
	jobID := p.lastUploadID
	p.mutex.Unlock()
	if jobID == "" {
		return ErrNoUpload
	}

	result, raw, err := p.backend.GetTranscription(ctx, jobID)
	if err != nil {
		return err
	}
	if models.HasError(result.Error) {
		p.display.Alert("Transcription error: " + string(raw))
		return nil
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Transcription %s: %s", jobID, result.Status))
	for _, segment := range result.Segments {
		text.WriteString(fmt.Sprintf("\n[%s - %s] %s: %s", formatMs(segment.StartMs), formatMs(segment.EndMs), segment.Speaker, segment.Text))
	}
	p.display.Alert(text.String())
	return nil
}

func formatMs(ms int) string {
	return fmt.Sprintf("%02d:%02d", ms/60000, (ms/1000)%60)
}

// RunWriterDemo never fails, every outcome ends up in the AI result text.
func (p *Panel) RunWriterDemo(ctx context.Context) {
	p.setAIResult(WriterCallingStatus)
	if !p.capabilities.HasWriter() {
		p.setAIResult(WriterUnavailable)
		return
	}
	resp, err := p.capabilities.Writer.Write(ctx, ai.WriteRequest{Model: ai.WriterModel, Input: WriterDemoInput})
	if err != nil {
		log.Debug().Err(err).Msg("writer demo failed")
		p.setAIResult("Error: " + err.Error())
		return
	}
	p.setAIResult("Writer result:\n" + resp.Output)
}

// RunSummarizerDemo never fails, every outcome ends up in the AI result text.
func (p *Panel) RunSummarizerDemo(ctx context.Context) {
	p.setAIResult(SummarizerCallingStatus)
	if !p.capabilities.HasSummarizer() {
		p.setAIResult(SummarizerUnavailable)
		return
	}
	resp, err := p.capabilities.Summarizer.Summarize(ctx, ai.SummarizeRequest{
		Model:   ai.SummarizerModel,
		Input:   SummarizerDemoInput,
		Options: defaultSummarizeOptions,
	})
	if err != nil {
		log.Debug().Err(err).Msg("summarizer demo failed")
		p.setAIResult("Error: " + err.Error())
		return
	}
	p.setAIResult("Summarizer result:\n" + resp.Output)
}

// TranscribeRecording transcribes the current recording locally, without the backend.
// Like the other AI demos its outcome ends up in the AI result text, only a missing recording is an error.
func (p *Panel) TranscribeRecording(ctx context.Context) error {
	artifact := p.recorder.Artifact()
	if artifact == nil {
		return ErrNoRecording
	}
	p.setAIResult(TranscriberCallingStatus)
	if !p.capabilities.HasTranscriber() {
		p.setAIResult(TranscriberUnavailable)
		return nil
	}
	data, _, err := p.blobs.Get(artifact.URL)
	if err != nil {
		return err
	}

	transcript, err := p.capabilities.Transcriber.SendAudio(ctx, bytes.NewReader(data), "wav", "")
	if err != nil {
		log.Debug().Err(err).Msg("transcription demo failed")
		p.setAIResult("Error: " + err.Error())
		return nil
	}
	p.setAIResult("Transcript:\n" + transcript)
	return nil
}

// Close tears the panel down: stops an active recording, any playback, and releases the recording.
func (p *Panel) Close() error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil
	}
	p.closed = true
	p.mutex.Unlock()

	if p.speakers != nil {
		if err := p.speakers.Stop(); err != nil {
			log.Debug().Err(err).Msg("cannot stop playback")
		}
	}
	return p.recorder.Close()
}

func (p *Panel) isClosed() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.closed
}
