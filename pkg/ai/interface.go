package ai

import (
	"context"

	"github.com/Hushmonday/Echo-hackathon/pkg/transcriber"
)

type WriteRequest struct {
	Model string
	Input string
}

type SummarizeOptions struct {
	// Type e.g. "key-points" or "tl;dr".
	Type string
	// Format e.g. "markdown" or "plain-text".
	Format    string
	MaxTokens int
}

type SummarizeRequest struct {
	Model   string
	Input   string
	Options SummarizeOptions
}

type Response struct {
	Output string
	Model  string
}

type Writer interface {
	Write(ctx context.Context, request WriteRequest) (Response, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, request SummarizeRequest) (Response, error)
}

// Capabilities are presence-checked: a nil member means it is not available.
type Capabilities struct {
	Writer      Writer
	Summarizer  Summarizer
	Transcriber transcriber.Transcriber
}

func (c Capabilities) HasWriter() bool {
	return c.Writer != nil
}

func (c Capabilities) HasSummarizer() bool {
	return c.Summarizer != nil
}

func (c Capabilities) HasTranscriber() bool {
	return c.Transcriber != nil
}
