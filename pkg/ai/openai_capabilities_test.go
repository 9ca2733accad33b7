package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, status int, response string) (*openai.Client, *openai.ChatCompletionRequest) {
	t.Helper()
	received := &openai.ChatCompletionRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, received))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(config), received
}

const completionResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "gpt-3.5-turbo-0613",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "1. Review milestones"}, "finish_reason": "stop"}]
}`

func TestNewOpenAICapabilities_NilClientHasNothing(t *testing.T) {
	capabilities := NewOpenAICapabilities(nil, "")
	assert.False(t, capabilities.HasWriter())
	assert.False(t, capabilities.HasSummarizer())
	assert.False(t, capabilities.HasTranscriber())
}

func TestOpenAIWriter_Write(t *testing.T) {
	client, received := newFakeOpenAI(t, http.StatusOK, completionResponse)
	capabilities := NewOpenAICapabilities(client, "")
	require.True(t, capabilities.HasWriter())

	resp, err := capabilities.Writer.Write(context.Background(), WriteRequest{Model: WriterModel, Input: "Generate a plan"})
	require.NoError(t, err)
	assert.Equal(t, "1. Review milestones", resp.Output)
	assert.Equal(t, "gpt-3.5-turbo-0613", resp.Model)

	assert.Equal(t, DefaultModel, received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, received.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, received.Messages[1].Role)
	assert.Equal(t, "Generate a plan", received.Messages[1].Content)
}

func TestOpenAISummarizer_Summarize(t *testing.T) {
	client, received := newFakeOpenAI(t, http.StatusOK, completionResponse)
	capabilities := NewOpenAICapabilities(client, "gpt-4")
	require.True(t, capabilities.HasSummarizer())

	_, err := capabilities.Summarizer.Summarize(context.Background(), SummarizeRequest{
		Model:   SummarizerModel,
		Input:   "Project kickoff meeting transcript",
		Options: SummarizeOptions{Type: "key-points", Format: "markdown", MaxTokens: 400},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", received.Model)
	assert.Equal(t, 400, received.MaxTokens)
	require.Len(t, received.Messages, 2)
	assert.Contains(t, received.Messages[0].Content, "key points")
	assert.Contains(t, received.Messages[0].Content, "markdown")
	assert.Equal(t, "Project kickoff meeting transcript", received.Messages[1].Content)
}

func TestOpenAIWriter_APIError(t *testing.T) {
	client, _ := newFakeOpenAI(t, http.StatusUnauthorized, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)
	capabilities := NewOpenAICapabilities(client, "")

	_, err := capabilities.Writer.Write(context.Background(), WriteRequest{Model: WriterModel, Input: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestOpenAIWriter_NoChoices(t *testing.T) {
	client, _ := newFakeOpenAI(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "model": "m", "choices": []}`)
	capabilities := NewOpenAICapabilities(client, "")

	_, err := capabilities.Writer.Write(context.Background(), WriteRequest{Model: WriterModel, Input: "x"})
	assert.ErrorContains(t, err, "no choices")
}
