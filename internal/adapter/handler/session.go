package handler

import (
	stdErrors "errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/errors"
	"github.com/johnquangdev/lumina/internal/adapter/dto/session"
	"github.com/johnquangdev/lumina/internal/adapter/presenter"
	"github.com/johnquangdev/lumina/internal/domain/entities"
	sessionUsecase "github.com/johnquangdev/lumina/internal/usecase/session"
	"github.com/johnquangdev/lumina/pkg/middleware"
	"github.com/johnquangdev/lumina/pkg/validator"
)

// Session handles analysis session HTTP requests
type Session struct {
	sessionService sessionUsecase.Service
	logger         *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService sessionUsecase.Service, logger *zap.Logger) *Session {
	return &Session{
		sessionService: sessionService,
		logger:         logger,
	}
}

// CreateSession handles POST /sessions
// @Summary      Create an analysis session
// @Description  Creates a new idle session that accepts one audio recording or transcript at a time
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  session.SessionResponse  "Session created"
// @Router       /sessions [post]
func (h *Session) CreateSession(c echo.Context) error {
	snap, err := h.sessionService.Create(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, ""))
	}
	return HandleSuccessWithStatus(h.logger, c, http.StatusCreated, presenter.ToSessionResponse(snap))
}

// GetSession handles GET /sessions/:id
// @Summary      Get session state
// @Description  Returns the state, progress stage, last error and current analysis of a session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  session.SessionResponse  "Session snapshot"
// @Failure      404  {object}  common.ErrorResponse     "Session not found"
// @Router       /sessions/{id} [get]
func (h *Session) GetSession(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	snap, err := h.sessionService.Get(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}
	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(snap))
}

// DeleteSession handles DELETE /sessions/:id
// @Summary      Delete a session
// @Description  Removes the session; an in-flight analysis result is discarded when it arrives
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  common.SuccessResponse  "Session deleted"
// @Failure      404  {object}  common.ErrorResponse    "Session not found"
// @Router       /sessions/{id} [delete]
func (h *Session) DeleteSession(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.sessionService.Delete(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}
	return HandleSuccess(h.logger, c, map[string]string{"id": id.String()})
}

// SubmitTranscript handles POST /sessions/:id/transcript
// @Summary      Submit a transcript
// @Description  Starts analysis of a meeting transcript. The session must be idle.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Session ID"
// @Param        request  body      session.SubmitTranscriptRequest  true  "Transcript"
// @Success      202      {object}  session.SessionResponse  "Analysis started"
// @Failure      400      {object}  common.ErrorResponse     "Invalid transcript"
// @Failure      409      {object}  common.ErrorResponse     "Session is not idle"
// @Router       /sessions/{id}/transcript [post]
func (h *Session) SubmitTranscript(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req session.SubmitTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInputValidation(validator.Describe(err)))
	}

	src := entities.InputSource{
		Mode: entities.InputModeTranscript,
		Text: req.Transcript,
	}
	return h.submit(c, id, src)
}

// SubmitAudio handles POST /sessions/:id/audio
// @Summary      Submit an audio recording
// @Description  Starts analysis of an uploaded recording (MP3, M4A or any audio/* type). The session must be idle.
// @Tags         Sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Session ID"
// @Param        file  formData  file    true  "Meeting recording"
// @Success      202   {object}  session.SessionResponse  "Analysis started"
// @Failure      400   {object}  common.ErrorResponse     "Invalid or unreadable file"
// @Failure      409   {object}  common.ErrorResponse     "Session is not idle"
// @Router       /sessions/{id}/audio [post]
func (h *Session) SubmitAudio(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	src := entities.InputSource{Mode: entities.InputModeAudio}

	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		src.File = &entities.FileInput{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	case stdErrors.Is(err, http.ErrMissingFile):
		// left nil; the normalizer reports the missing file
	default:
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	return h.submit(c, id, src)
}

func (h *Session) submit(c echo.Context, id uuid.UUID, src entities.InputSource) error {
	snap, err := h.sessionService.Submit(c.Request().Context(), id, src)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}
	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToSessionResponse(snap))
}

// RetrySession handles POST /sessions/:id/retry
// @Summary      Retry a failed analysis
// @Description  Resubmits the inputs of the failed submission
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      202  {object}  session.SessionResponse  "Analysis restarted"
// @Failure      409  {object}  common.ErrorResponse     "Nothing to retry"
// @Router       /sessions/{id}/retry [post]
func (h *Session) RetrySession(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	snap, err := h.sessionService.Retry(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}
	return HandleSuccessWithStatus(h.logger, c, http.StatusAccepted, presenter.ToSessionResponse(snap))
}

// ResetSession handles POST /sessions/:id/reset
// @Summary      Reset a session
// @Description  Discards the result, error and inputs and returns the session to idle
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  session.SessionResponse  "Session reset"
// @Router       /sessions/{id}/reset [post]
func (h *Session) ResetSession(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	snap, err := h.sessionService.Reset(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}
	return HandleSuccess(h.logger, c, presenter.ToSessionResponse(snap))
}

// GetAnalysis handles GET /sessions/:id/analysis
// @Summary      Get the meeting analysis
// @Description  Returns the analysis document of a ready session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  session.AnalysisResponse  "Meeting analysis"
// @Failure      409  {object}  common.ErrorResponse      "Analysis not ready"
// @Router       /sessions/{id}/analysis [get]
func (h *Session) GetAnalysis(c echo.Context) error {
	id, err := parseSessionID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	analysis, err := h.sessionService.Analysis(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}
	return HandleSuccess(h.logger, c, presenter.ToAnalysisResponse(analysis))
}

func parseSessionID(c echo.Context) (uuid.UUID, error) {
	if id, ok := middleware.SessionID(c); ok {
		return id, nil
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("invalid session id")
	}
	return id, nil
}
