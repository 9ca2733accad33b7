package transcriber

import (
	"context"
	"fmt"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"io"
	"strings"
	"time"
)

type openAIWhisper struct {
	client *openai.Client
}

// NewOpenAIWhisper returns nil without a client, so callers can presence-check it.
func NewOpenAIWhisper(client *openai.Client) Transcriber {
	if client == nil {
		return nil
	}
	return &openAIWhisper{
		client: client,
	}
}

func (o *openAIWhisper) SendAudio(ctx context.Context, input io.Reader, fileExtension string, prompt string) (result string, err error) {
	startTime := time.Now()
	req := openai.AudioRequest{
		Model:  openai.Whisper1,
		Reader: input,
		// Only the extension matters, Whisper uses it to detect the container.
		FilePath: fmt.Sprintf("recording.%s", fileExtension),
		// NOTE: Giving the model the previous words improves accuracy.
		Prompt: prompt,
	}

	log.Debug().Str("model", req.Model).Str("prompt", prompt).Msg("create transcription request")
	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		err = fmt.Errorf("cannot create transcription %w", err)
		return
	}

	result = strings.TrimSpace(resp.Text)
	log.Debug().Str("transcription", result).Dur("time_elapsed", time.Since(startTime)).Msg("received transcription")
	return
}
