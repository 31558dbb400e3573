package presenter

import (
	"github.com/johnquangdev/lumina/internal/adapter/dto/session"
	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/internal/infrastructure/storage"
	sessionUsecase "github.com/johnquangdev/lumina/internal/usecase/session"
)

// ToSessionResponse converts a session snapshot to SessionResponse DTO
func ToSessionResponse(s sessionUsecase.Snapshot) *session.SessionResponse {
	response := &session.SessionResponse{
		ID:          s.ID.String(),
		State:       string(s.State),
		Stage:       string(s.Stage),
		Generation:  s.Generation,
		Input:       s.Input,
		Analysis:    ToAnalysisResponse(s.Analysis),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		SubmittedAt: s.SubmittedAt,
		CompletedAt: s.CompletedAt,
	}

	if s.Failure != nil {
		response.Error = &session.FailureResponse{
			Kind:    string(s.Failure.Kind),
			Message: s.Failure.Message,
		}
	}

	return response
}

// ToAnalysisResponse converts a MeetingAnalysis to AnalysisResponse DTO
func ToAnalysisResponse(a *entities.MeetingAnalysis) *session.AnalysisResponse {
	if a == nil {
		return nil
	}

	return &session.AnalysisResponse{
		MeetingAnalysis:  a,
		AverageSentiment: a.AverageSentiment(),
		ActionItemCount:  len(a.ActionItems),
		InsightCount:     len(a.DeepInsights),
	}
}

// ToExportResponse converts an export result to ExportResponse DTO
func ToExportResponse(r *storage.ExportResult) *session.ExportResponse {
	if r == nil {
		return nil
	}

	return &session.ExportResponse{
		Object:    r.Object,
		URL:       r.URL,
		ExpiresAt: r.ExpiresAt,
	}
}
