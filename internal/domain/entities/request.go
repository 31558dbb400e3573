package entities

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// InputMode is the kind of input a user supplies for analysis
type InputMode string

const (
	InputModeAudio      InputMode = "audio"
	InputModeTranscript InputMode = "transcript"
)

// RequestKind identifies which AnalysisRequest variant is populated
type RequestKind string

const (
	RequestKindText  RequestKind = "text"
	RequestKindAudio RequestKind = "audio"
)

// FileInput is an uploaded recording. Open is called once, when the
// submission reads the payload.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// InputSource is raw user input before normalization
type InputSource struct {
	Mode InputMode
	Text string
	File *FileInput
}

// Summary describes the source without carrying its payload
func (s InputSource) Summary() InputSummary {
	summary := InputSummary{Mode: s.Mode}
	switch s.Mode {
	case InputModeAudio:
		if s.File != nil {
			summary.FileName = s.File.Name
			summary.FileSize = s.File.Size
		}
	case InputModeTranscript:
		summary.TranscriptLength = len(s.Text)
	}
	return summary
}

// InputSummary is the user-visible description of the last submitted input
type InputSummary struct {
	Mode             InputMode `json:"mode"`
	FileName         string    `json:"file_name,omitempty"`
	FileSize         int64     `json:"file_size,omitempty"`
	MIMEType         string    `json:"mime_type,omitempty"`
	TranscriptLength int       `json:"transcript_length,omitempty"`
}

// AnalysisRequest is the canonical payload sent to the analysis provider.
// Exactly one variant is populated: Content for text, Data and MIMEType for audio.
// Data holds the recording bytes in standard base64.
type AnalysisRequest struct {
	Kind     RequestKind `json:"kind"`
	Content  string      `json:"content,omitempty"`
	Data     string      `json:"data,omitempty"`
	MIMEType string      `json:"mimeType,omitempty"`
}

// NewTextRequest builds the text variant
func NewTextRequest(content string) *AnalysisRequest {
	return &AnalysisRequest{Kind: RequestKindText, Content: content}
}

// NewAudioRequest builds the audio variant, encoding the bytes as base64
func NewAudioRequest(data []byte, mimeType string) *AnalysisRequest {
	return &AnalysisRequest{
		Kind:     RequestKindAudio,
		Data:     EncodeAudio(data),
		MIMEType: mimeType,
	}
}

// EncodeAudio converts raw bytes into their ASCII-safe transport form
func EncodeAudio(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeAudio reverses EncodeAudio
func DecodeAudio(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// Audio returns the decoded recording bytes of an audio request
func (r *AnalysisRequest) Audio() ([]byte, error) {
	if r.Kind != RequestKindAudio {
		return nil, fmt.Errorf("request kind %q carries no audio", r.Kind)
	}
	return DecodeAudio(r.Data)
}

// Validate enforces the one-variant invariant
func (r *AnalysisRequest) Validate() error {
	switch r.Kind {
	case RequestKindText:
		if r.Data != "" || r.MIMEType != "" {
			return NewValidationError("text request must not carry audio data")
		}
		if strings.TrimSpace(r.Content) == "" {
			return NewValidationError("Please enter a meeting transcript.")
		}
	case RequestKindAudio:
		if r.Content != "" {
			return NewValidationError("audio request must not carry transcript text")
		}
		if r.MIMEType == "" {
			return NewValidationError("audio request requires a MIME type")
		}
		if r.Data == "" {
			return NewValidationError("audio request requires a non-empty payload")
		}
	default:
		return NewValidationError(fmt.Sprintf("unknown request kind %q", r.Kind))
	}
	return nil
}

// PayloadSize returns the transport size of the request payload in bytes
func (r *AnalysisRequest) PayloadSize() int {
	if r.Kind == RequestKindAudio {
		return len(r.Data)
	}
	return len(r.Content)
}
