package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindIO         ErrorKind = "io"
	KindProvider   ErrorKind = "provider"
	KindSchema     ErrorKind = "schema"
)

// Sentinels for errors.Is matching against an *AnalysisError
var (
	ErrValidation = errors.New("validation error")
	ErrIO         = errors.New("io error")
	ErrProvider   = errors.New("provider error")
	ErrSchema     = errors.New("schema error")
)

// AnalysisError is returned by every stage of an analysis submission.
// StatusCode is set for provider failures that came with an HTTP status.
type AnalysisError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *AnalysisError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrIO:
		return e.Kind == KindIO
	case ErrProvider:
		return e.Kind == KindProvider
	case ErrSchema:
		return e.Kind == KindSchema
	}
	return false
}

// Retryable reports whether a provider failure is worth another attempt:
// transport errors, rate limiting and 5xx responses.
func (e *AnalysisError) Retryable() bool {
	if e.Kind != KindProvider {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

func NewValidationError(message string) error {
	return &AnalysisError{Kind: KindValidation, Message: message}
}

func NewIOError(message string, err error) error {
	return &AnalysisError{Kind: KindIO, Message: message, Err: err}
}

func NewProviderError(message string, statusCode int, err error) error {
	return &AnalysisError{Kind: KindProvider, Message: message, StatusCode: statusCode, Err: err}
}

func NewSchemaError(message string, err error) error {
	return &AnalysisError{Kind: KindSchema, Message: message, Err: err}
}

// AsAnalysisError extracts the *AnalysisError from an error chain
func AsAnalysisError(err error) (*AnalysisError, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// UserMessage is the text shown to the user for a failed submission
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := AsAnalysisError(err); ok {
		return ae.Message
	}
	return "An unexpected error occurred during analysis."
}
