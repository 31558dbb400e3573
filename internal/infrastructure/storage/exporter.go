package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/internal/domain/entities"
)

// ObjectStore is the subset of MinIOClient used for exports
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	ListFiles(ctx context.Context, prefix string) ([]string, error)
}

// ExportResult describes an uploaded analysis document
type ExportResult struct {
	Object    string
	URL       string
	ExpiresAt time.Time
}

// exportDocument is the JSON written for every export
type exportDocument struct {
	SessionID  string                    `json:"session_id"`
	ExportedAt time.Time                 `json:"exported_at"`
	Analysis   *entities.MeetingAnalysis `json:"analysis"`
}

// AnalysisExporter uploads analysis documents under analyses/<session>/
type AnalysisExporter struct {
	store  ObjectStore
	expiry time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalysisExporter creates an exporter backed by store
func NewAnalysisExporter(store ObjectStore, expiry time.Duration, logger *zap.Logger) *AnalysisExporter {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &AnalysisExporter{
		store:  store,
		expiry: expiry,
		logger: logger,
		now:    time.Now,
	}
}

// ExportPrefix returns the object prefix holding a session's exports
func ExportPrefix(sessionID uuid.UUID) string {
	return fmt.Sprintf("analyses/%s/", sessionID)
}

// Export uploads the analysis as JSON and returns a presigned download URL
func (e *AnalysisExporter) Export(ctx context.Context, sessionID uuid.UUID, analysis *entities.MeetingAnalysis) (*ExportResult, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis is required")
	}

	exportedAt := e.now().UTC()
	body, err := json.MarshalIndent(exportDocument{
		SessionID:  sessionID.String(),
		ExportedAt: exportedAt,
		Analysis:   analysis,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	object := ExportPrefix(sessionID) + exportedAt.Format("20060102T150405.000Z") + ".json"
	if err := e.store.UploadFile(ctx, object, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return nil, fmt.Errorf("failed to upload analysis export: %w", err)
	}

	url, err := e.store.GetFileURL(ctx, object, e.expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign analysis export: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("📦 Analysis exported",
			zap.String("session_id", sessionID.String()),
			zap.String("object", object),
			zap.Int("bytes", len(body)),
		)
	}

	return &ExportResult{
		Object:    object,
		URL:       url,
		ExpiresAt: exportedAt.Add(e.expiry),
	}, nil
}

// List returns the object names of a session's previous exports
func (e *AnalysisExporter) List(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	files, err := e.store.ListFiles(ctx, ExportPrefix(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis exports: %w", err)
	}
	return files, nil
}
