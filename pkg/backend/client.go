// Package backend talks to the Echo demo HTTP service.
//
// Responses are decoded as JSON whatever the status code is, since the service reports
// problems as a JSON body with an "error" field. There are no retries and no timeouts.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Hushmonday/Echo-hackathon/pkg/models"
)

const DefaultBaseURL = "http://localhost:8000"

const (
	uploadPathFormat         = "/api/meetings/%s/audio"
	summarizePath            = "/api/ai/summarize"
	exportPDFPath            = "/api/exports/pdf"
	transcribePathFormat     = "/api/transcribe/%s"
	meetingSummaryPathFormat = "/api/meetings/%s/summaries"
)

// ErrNotJSON means the service answered with something that is not a JSON document.
var ErrNotJSON = errors.New("response is not json")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient with an empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadAudio posts data as the multipart field "file".
func (c *Client) UploadAudio(ctx context.Context, meetingID string, fileName string, contentType string, data []byte) (result models.UploadResponse, raw json.RawMessage, err error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		err = errors.Wrap(err, "cannot create multipart file part")
		return
	}
	if _, err = part.Write(data); err != nil {
		err = errors.Wrap(err, "cannot write multipart file part")
		return
	}
	if err = writer.Close(); err != nil {
		err = errors.Wrap(err, "cannot finish multipart body")
		return
	}

	endpoint := fmt.Sprintf(uploadPathFormat, url.PathEscape(meetingID))
	raw, err = c.do(ctx, http.MethodPost, endpoint, writer.FormDataContentType(), body)
	if err != nil {
		return
	}
	err = decode(raw, endpoint, &result)
	return
}

func (c *Client) Summarize(ctx context.Context, request models.SummarizeRequest) (result models.SummaryResponse, raw json.RawMessage, err error) {
	raw, err = c.postJSON(ctx, summarizePath, request)
	if err != nil {
		return
	}
	err = decode(raw, summarizePath, &result)
	return
}

func (c *Client) ExportPDF(ctx context.Context, request models.ExportRequest) (result models.ExportResponse, raw json.RawMessage, err error) {
	raw, err = c.postJSON(ctx, exportPDFPath, request)
	if err != nil {
		return
	}
	err = decode(raw, exportPDFPath, &result)
	return
}

// GetTranscription looks up a transcription job created by UploadAudio.
func (c *Client) GetTranscription(ctx context.Context, jobID string) (result models.TranscriptionResponse, raw json.RawMessage, err error) {
	endpoint := fmt.Sprintf(transcribePathFormat, url.PathEscape(jobID))
	raw, err = c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return
	}
	err = decode(raw, endpoint, &result)
	return
}

// SummarizeMeeting asks for the summary of an uploaded meeting.
func (c *Client) SummarizeMeeting(ctx context.Context, meetingID string, mode string) (result models.SummaryResponse, raw json.RawMessage, err error) {
	endpoint := fmt.Sprintf(meetingSummaryPathFormat, url.PathEscape(meetingID))
	raw, err = c.postJSON(ctx, endpoint, models.MeetingSummaryRequest{Mode: mode})
	if err != nil {
		return
	}
	err = decode(raw, endpoint, &result)
	return
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot marshal request for %s", endpoint)
	}
	return c.do(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(reqBody))
}

// do returns the compacted JSON body.
func (c *Client) do(ctx context.Context, method string, endpoint string, contentType string, body io.Reader) (json.RawMessage, error) {
	requestStart := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create request %s %s", method, endpoint)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s %s failed", method, endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read response of %s %s", method, endpoint)
	}
	log.Debug().Dur("request_time", time.Since(requestStart)).Str("method", method).Str("endpoint", endpoint).Int("status_code", resp.StatusCode).Int("response_byte_size", len(respBody)).Msg("request done")

	compacted := &bytes.Buffer{}
	if err := json.Compact(compacted, respBody); err != nil {
		return nil, fmt.Errorf("%w: status %d from %s: %s", ErrNotJSON, resp.StatusCode, endpoint, truncate(respBody, 200))
	}
	return compacted.Bytes(), nil
}

func decode(raw json.RawMessage, endpoint string, into any) error {
	if err := json.Unmarshal(raw, into); err != nil {
		return errors.Wrapf(err, "unexpected response shape from %s", endpoint)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func truncate(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
