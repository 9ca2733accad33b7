package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/Hushmonday/Echo-hackathon/pkg/transcriber"
)

const DefaultModel = openai.GPT3Dot5Turbo

// Logical model names the callers ask for, mapped onto the configured chat model.
const (
	WriterModel     = "writer"
	SummarizerModel = "summarizer"
)

const writerSystemPrompt = "You are a writing assistant. Write the requested text directly, without any preamble."

type openAIChat struct {
	client    *openai.Client
	chatModel string
}

// NewOpenAICapabilities returns the writer and summarizer backed by chat completions plus Whisper transcription,
// or no capabilities at all when client is nil.
func NewOpenAICapabilities(client *openai.Client, chatModel string) Capabilities {
	if client == nil {
		return Capabilities{}
	}
	if chatModel == "" {
		chatModel = DefaultModel
	}
	chat := &openAIChat{client: client, chatModel: chatModel}
	return Capabilities{
		Writer:      &openAIWriter{chat},
		Summarizer:  &openAISummarizer{chat},
		Transcriber: transcriber.NewOpenAIWhisper(client),
	}
}

type openAIWriter struct {
	chat *openAIChat
}

func (w *openAIWriter) Write(ctx context.Context, request WriteRequest) (Response, error) {
	return w.chat.complete(ctx, request.Model, writerSystemPrompt, request.Input, 0)
}

type openAISummarizer struct {
	chat *openAIChat
}

func (s *openAISummarizer) Summarize(ctx context.Context, request SummarizeRequest) (Response, error) {
	return s.chat.complete(ctx, request.Model, summarizerSystemPrompt(request.Options), request.Input, request.Options.MaxTokens)
}

func summarizerSystemPrompt(options SummarizeOptions) string {
	var prompt strings.Builder
	prompt.WriteString("You summarize text.")
	switch options.Type {
	case "key-points":
		prompt.WriteString(" Return the most important key points as a bulleted list.")
	case "tl;dr", "tldr":
		prompt.WriteString(" Return a short overview of at most three sentences.")
	case "headline":
		prompt.WriteString(" Return a single headline.")
	case "teaser":
		prompt.WriteString(" Return an engaging teaser.")
	}
	if options.Format != "" {
		prompt.WriteString(fmt.Sprintf(" Format the output as %s.", options.Format))
	}
	return prompt.String()
}

func (o *openAIChat) complete(ctx context.Context, logicalModel string, systemPrompt string, input string, maxTokens int) (result Response, err error) {
	startTime := time.Now()
	chatRequest := openai.ChatCompletionRequest{
		Model: o.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	}
	log.Debug().Str("logical_model", logicalModel).Str("model", chatRequest.Model).Int("max_tokens", maxTokens).Str("input", input).Msg("chat completion request")

	resp, err := o.client.CreateChatCompletion(ctx, chatRequest)
	if err != nil {
		err = errors.Wrapf(err, "chat completion for %s failed", logicalModel)
		return
	}
	if len(resp.Choices) == 0 {
		err = fmt.Errorf("chat completion for %s returned no choices", logicalModel)
		return
	}

	result = Response{
		Output: resp.Choices[0].Message.Content,
		Model:  resp.Model,
	}
	log.Debug().Dur("time_elapsed", time.Since(startTime)).Int("output_length", len(result.Output)).Msg("chat completion received")
	return
}
