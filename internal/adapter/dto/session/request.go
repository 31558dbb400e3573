package session

// SubmitTranscriptRequest represents a transcript submission
type SubmitTranscriptRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

