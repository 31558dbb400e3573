package handler

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/errors"
	"github.com/johnquangdev/lumina/internal/adapter/dto/common"
	"github.com/johnquangdev/lumina/pkg/config"
)

// BucketInspector reports object storage status for the health check
type BucketInspector interface {
	GetBucketInfo(ctx context.Context) (map[string]interface{}, error)
}

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	sessionHandler *Session
	exportHandler  *Export
	sessionMW      echo.MiddlewareFunc
	provider       string
	sessionCount   func() int
	bucket         BucketInspector
	logger         *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	sessionHandler *Session,
	exportHandler *Export,
	sessionMW echo.MiddlewareFunc,
	provider string,
	sessionCount func() int,
	bucket BucketInspector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:            cfg,
		sessionHandler: sessionHandler,
		exportHandler:  exportHandler,
		sessionMW:      sessionMW,
		provider:       provider,
		sessionCount:   sessionCount,
		bucket:         bucket,
		logger:         logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = rt.httpErrorHandler

	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupSessionRoutes(v1)
}

// setupSessionRoutes configures analysis session routes
func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessions := g.Group("/sessions")
	sessions.POST("", rt.sessionHandler.CreateSession)

	var mw []echo.MiddlewareFunc
	if rt.sessionMW != nil {
		mw = append(mw, rt.sessionMW)
	}
	item := sessions.Group("/:id", mw...)

	item.GET("", rt.sessionHandler.GetSession)
	item.DELETE("", rt.sessionHandler.DeleteSession)
	item.POST("/transcript", rt.sessionHandler.SubmitTranscript)
	item.POST("/audio", rt.sessionHandler.SubmitAudio)
	item.POST("/retry", rt.sessionHandler.RetrySession)
	item.POST("/reset", rt.sessionHandler.ResetSession)
	item.GET("/analysis", rt.sessionHandler.GetAnalysis)

	if rt.exportHandler != nil {
		item.POST("/export", rt.exportHandler.ExportAnalysis)
		item.GET("/exports", rt.exportHandler.ListExports)
	}
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	resp := common.HealthResponse{
		Status:   "ok",
		Provider: rt.provider,
	}
	if rt.cfg != nil {
		resp.Environment = rt.cfg.Server.Environment
	}
	if rt.sessionCount != nil {
		resp.Sessions = rt.sessionCount()
	}

	if rt.bucket != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		info, err := rt.bucket.GetBucketInfo(ctx)
		if err != nil {
			resp.Status = "degraded"
			info = map[string]interface{}{"error": err.Error()}
		}
		resp.Storage = info
	}

	return c.JSON(http.StatusOK, resp)
}

// httpErrorHandler renders errors raised by echo itself (unknown routes,
// body limit, panics caught by Recover) with the standard envelope
func (rt *Router) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if stdErrors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			err = errors.ErrNotFound(fmt.Sprintf("route %s %s", c.Request().Method, c.Request().URL.Path))
		case http.StatusRequestEntityTooLarge:
			limit := ""
			if rt.cfg != nil {
				limit = rt.cfg.Server.BodyLimit
			}
			err = errors.ErrInputTooLarge(limit)
		default:
			code := errors.ErrorCode_INVALID_ARGUMENT
			if he.Code >= http.StatusInternalServerError {
				code = errors.ErrorCode_INTERNAL
			}
			err = errors.AppError{
				Raw:      he.Internal,
				HTTPCode: he.Code,
				Code:     code,
				Message:  fmt.Sprint(he.Message),
			}
		}
	}

	if hErr := HandleError(rt.logger, c, err); hErr != nil && rt.logger != nil {
		rt.logger.Error("failed to write error response", zap.Error(hErr))
	}
}
