package models

import (
	"bytes"
	"encoding/json"
)

type SummarizeRequest struct {
	Transcript string `json:"transcript"`
	Mode       string `json:"mode"`
}

type MeetingSummaryRequest struct {
	Mode string `json:"mode"`
}

type ExportRequest struct {
	SourceID string `json:"sourceId"`
	Format   string `json:"format"`
	Content  string `json:"content"`
}

type TranscriptSegment struct {
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type UploadResponse struct {
	TranscribeJobID string              `json:"transcribeJobId"`
	Uploaded        string              `json:"uploaded"`
	MockSegments    []TranscriptSegment `json:"mockSegments"`
	Error           json.RawMessage     `json:"error,omitempty"`
}

type SummaryResponse struct {
	NoteID    string          `json:"noteId"`
	ContentMd string          `json:"contentMd"`
	Mode      string          `json:"mode,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

type ExportResponse struct {
	ExportID string          `json:"exportId"`
	URL      string          `json:"url"`
	Error    json.RawMessage `json:"error,omitempty"`
}

type TranscriptionResponse struct {
	Status   string              `json:"status"`
	Segments []TranscriptSegment `json:"segments"`
	Error    json.RawMessage     `json:"error,omitempty"`
}

// HasError reports whether a decoded "error" field carries a truthy value,
// i.e. anything except absent, null, false, 0 or an empty string.
func HasError(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
