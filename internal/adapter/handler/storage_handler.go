package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/errors"
	"github.com/johnquangdev/lumina/internal/adapter/dto/session"
	"github.com/johnquangdev/lumina/internal/adapter/presenter"
	"github.com/johnquangdev/lumina/internal/domain/entities"
	"github.com/johnquangdev/lumina/internal/infrastructure/storage"
	sessionUsecase "github.com/johnquangdev/lumina/internal/usecase/session"
)

// Exporter uploads analysis documents to object storage
type Exporter interface {
	Export(ctx context.Context, sessionID uuid.UUID, analysis *entities.MeetingAnalysis) (*storage.ExportResult, error)
	List(ctx context.Context, sessionID uuid.UUID) ([]string, error)
}

// Export handles analysis export endpoints. A nil exporter means storage is disabled.
type Export struct {
	sessionService sessionUsecase.Service
	exporter       Exporter
	logger         *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(sessionService sessionUsecase.Service, exporter Exporter, logger *zap.Logger) *Export {
	return &Export{
		sessionService: sessionService,
		exporter:       exporter,
		logger:         logger,
	}
}

// ExportAnalysis uploads the current analysis of a session
// @Summary      Export a meeting analysis
// @Description  Uploads the analysis of a ready session as JSON and returns a presigned download URL
// @Tags         Exports
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  session.ExportResponse  "Export uploaded"
// @Failure      409  {object}  common.ErrorResponse    "Analysis not ready"
// @Failure      503  {object}  common.ErrorResponse    "Storage disabled"
// @Router       /sessions/{id}/export [post]
func (h *Export) ExportAnalysis(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.exporter == nil {
		return HandleError(h.logger, c, errors.ErrExportDisabled())
	}

	ctx := c.Request().Context()
	analysis, err := h.sessionService.Analysis(ctx, id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}

	result, err := h.exporter.Export(ctx, id, analysis)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to export analysis",
				zap.String("session_id", id.String()),
				zap.Error(err))
		}
		return HandleError(h.logger, c, errors.ErrExportFailed(err))
	}

	return HandleSuccess(h.logger, c, presenter.ToExportResponse(result))
}

// ListExports lists the previous exports of a session
// @Summary      List analysis exports
// @Description  Lists the object names of previous exports of a session
// @Tags         Exports
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  session.ExportListResponse  "Exports"
// @Failure      503  {object}  common.ErrorResponse        "Storage disabled"
// @Router       /sessions/{id}/exports [get]
func (h *Export) ListExports(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.exporter == nil {
		return HandleError(h.logger, c, errors.ErrExportDisabled())
	}

	objects, err := h.exporter.List(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("list exports", err))
	}
	if objects == nil {
		objects = []string{}
	}

	return HandleSuccess(h.logger, c, session.ExportListResponse{
		SessionID: id.String(),
		Objects:   objects,
	})
}
