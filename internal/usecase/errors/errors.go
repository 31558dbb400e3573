package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("resource conflict")
	ErrInternalError = errors.New("internal server error")
)

// Session errors
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSubmissionInProgress = errors.New("an analysis is already in progress")
	ErrInvalidState         = errors.New("operation not allowed in the current state")
	ErrAnalysisNotReady     = errors.New("analysis is not ready")
	ErrNothingToRetry       = errors.New("no failed submission to retry")
	ErrSubmissionDiscarded  = errors.New("submission discarded by a reset")
)

// Export errors
var (
	ErrExportDisabled = errors.New("analysis export is disabled")
)
