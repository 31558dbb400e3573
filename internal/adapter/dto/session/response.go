package session

import (
	"time"

	"github.com/johnquangdev/lumina/internal/domain/entities"
)

// SessionResponse represents an analysis session
type SessionResponse struct {
	ID          string                 `json:"id"`
	State       string                 `json:"state"`
	Stage       string                 `json:"stage,omitempty"`
	Generation  uint64                 `json:"generation"`
	Input       *entities.InputSummary `json:"input,omitempty"`
	Error       *FailureResponse       `json:"error,omitempty"`
	Analysis    *AnalysisResponse      `json:"analysis,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	SubmittedAt *time.Time             `json:"submitted_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// FailureResponse is the error held by a failed session
type FailureResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// AnalysisResponse is the analysis document with derived metrics
type AnalysisResponse struct {
	*entities.MeetingAnalysis
	AverageSentiment float64 `json:"averageSentiment"`
	ActionItemCount  int     `json:"actionItemCount"`
	InsightCount     int     `json:"insightCount"`
}

// ExportResponse describes an uploaded analysis export
type ExportResponse struct {
	Object    string    `json:"object"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportListResponse lists a session's previous exports
type ExportListResponse struct {
	SessionID string   `json:"session_id"`
	Objects   []string `json:"objects"`
}
