package jobcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keySessionID  KeyContext = "session_id"
	keyGeneration KeyContext = "generation"
	keyInputMode  KeyContext = "input_mode"
	keyStartTime  KeyContext = "submission_start_time"
	keyProgress   KeyContext = "progress"
)

// ProgressFunc receives stage names as a submission moves forward
type ProgressFunc func(stage string)

// SubmissionBegin attaches submission metadata to a context. No deadline is
// added; the provider transport's own timeouts apply.
func SubmissionBegin(parentCtx context.Context, sessionID uuid.UUID, generation uint64, inputMode string) context.Context {
	ctx := context.WithValue(parentCtx, keySessionID, sessionID)
	ctx = context.WithValue(ctx, keyGeneration, generation)
	ctx = context.WithValue(ctx, keyInputMode, inputMode)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())
	return ctx
}

// GetSessionID extracts session ID from context
func GetSessionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keySessionID).(uuid.UUID)
	return id, ok
}

// GetGeneration extracts the submission generation from context
func GetGeneration(ctx context.Context) (uint64, bool) {
	gen, ok := ctx.Value(keyGeneration).(uint64)
	return gen, ok
}

// GetInputMode extracts the input mode from context
func GetInputMode(ctx context.Context) string {
	mode, _ := ctx.Value(keyInputMode).(string)
	return mode
}

// GetStartTime extracts submission start time from context
func GetStartTime(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(keyStartTime).(time.Time)
	return start, ok
}

// Elapsed returns the time since the submission started, or 0 outside a submission
func Elapsed(ctx context.Context) time.Duration {
	start, ok := GetStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// WithProgress attaches a progress callback to the context
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, keyProgress, fn)
}

// ReportProgress calls the progress callback carried by ctx, if any
func ReportProgress(ctx context.Context, stage string) {
	if fn, ok := ctx.Value(keyProgress).(ProgressFunc); ok && fn != nil {
		fn(stage)
	}
}

// Fields returns zap fields describing the submission carried by ctx
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id, ok := GetSessionID(ctx); ok {
		fields = append(fields, zap.String("session_id", id.String()))
	}
	if gen, ok := GetGeneration(ctx); ok {
		fields = append(fields, zap.Uint64("generation", gen))
	}
	if mode := GetInputMode(ctx); mode != "" {
		fields = append(fields, zap.String("input_mode", mode))
	}
	return fields
}
