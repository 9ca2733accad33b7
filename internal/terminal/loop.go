package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Hushmonday/Echo-hackathon/pkg/models"
	"github.com/Hushmonday/Echo-hackathon/pkg/panel"
)

const helpText = `Commands:
  start            start recording
  stop             stop recording
  play             play the recording
  upload           upload the recording to the demo meeting
  transcribe       transcribe the recording locally
  transcript       show the transcription of the last upload
  summary          summarize the demo transcript
  meeting-summary  summarize the demo meeting
  export           export the demo note as PDF and open it
  writer           run the writer demo
  summarizer       run the summarizer demo
  help             show this help
  quit             leave
`

// CommandLoop executes one command per input line until quit or EOF.
type CommandLoop struct {
	panel    *panel.Panel
	display  *Display
	input    *bufio.Scanner
	commands map[string]func(ctx context.Context) error
}

func NewCommandLoop(p *panel.Panel, display *Display, input io.Reader) *CommandLoop {
	l := &CommandLoop{
		panel:   p,
		display: display,
		input:   bufio.NewScanner(input),
	}
	l.commands = map[string]func(ctx context.Context) error{
		"start":           p.StartRecording,
		"stop":            func(context.Context) error { return p.StopRecording() },
		"play":            func(context.Context) error { return p.PlayRecording() },
		"upload":          p.UploadAudio,
		"transcript":      p.CheckTranscription,
		"transcribe":      p.TranscribeRecording,
		"summary":         p.GenerateSummary,
		"meeting-summary": p.GenerateMeetingSummary,
		"export":          p.CreateExport,
		"writer":          func(ctx context.Context) error { p.RunWriterDemo(ctx); return nil },
		"summarizer":      func(ctx context.Context) error { p.RunSummarizerDemo(ctx); return nil },
	}
	return l
}

func (l *CommandLoop) Run(ctx context.Context) error {
	l.display.Printf("Echo - Demo Recorder\n%s", helpText)
	for {
		l.prompt()
		if !l.input.Scan() {
			return l.input.Err()
		}
		name := strings.ToLower(strings.TrimSpace(l.input.Text()))
		switch name {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			l.display.Printf("%s", helpText)
			continue
		}

		command, ok := l.commands[name]
		if !ok {
			l.display.Printf("Unknown command %q, type help\n", name)
			continue
		}
		if err := command(ctx); err != nil {
			log.Error().Err(err).Str("command", name).Msg("command failed")
			l.display.Alert("Failed: " + err.Error())
		}
	}
}

func (l *CommandLoop) prompt() {
	if l.panel.State() == models.Recording {
		l.display.Printf("[recording] > ")
		return
	}
	l.display.Printf("> ")
}
