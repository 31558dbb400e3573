package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/lumina/errors"
	"github.com/johnquangdev/lumina/internal/adapter/dto/common"
	"github.com/johnquangdev/lumina/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/lumina/internal/usecase/errors"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleSuccessWithStatus(logger, c, http.StatusOK, data)
}

// HandleSuccessWithStatus writes a standardized success response with a custom status
func HandleSuccessWithStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := common.SuccessResponse{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.String("app_code", appErr.Code.String()),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := common.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := common.ErrorResponse{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// toAppError maps domain and usecase errors onto the HTTP error surface
func toAppError(err error, sessionID string) error {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrSessionNotFound):
		return errors.ErrSessionNotFound(sessionID)
	case stdErrors.Is(err, usecaseErrors.ErrSubmissionInProgress):
		return errors.ErrSubmissionInProgress(sessionID)
	case stdErrors.Is(err, usecaseErrors.ErrInvalidState):
		return errors.ErrSessionInvalidState(sessionID, "")
	case stdErrors.Is(err, usecaseErrors.ErrAnalysisNotReady):
		return errors.ErrAnalysisNotReady(sessionID)
	case stdErrors.Is(err, usecaseErrors.ErrNothingToRetry):
		return errors.ErrNothingToRetry(sessionID)
	case stdErrors.Is(err, usecaseErrors.ErrSubmissionDiscarded):
		return errors.ErrSubmissionDiscarded(sessionID)
	case stdErrors.Is(err, usecaseErrors.ErrExportDisabled):
		return errors.ErrExportDisabled()
	}

	ae, ok := entities.AsAnalysisError(err)
	if !ok {
		return errors.ErrInternal(err)
	}

	switch ae.Kind {
	case entities.KindValidation:
		return errors.ErrInputValidation(ae.Message)
	case entities.KindIO:
		return errors.ErrInputReadFailed(ae.Message, ae.Err)
	case entities.KindSchema:
		return errors.ErrAIResponseInvalid(ae.Message, ae.Err)
	case entities.KindProvider:
		if ae.StatusCode == http.StatusTooManyRequests {
			return errors.ErrAIQuotaExceeded()
		}
		return errors.ErrAIAnalysisFailed(ae.Message, ae.Err)
	}
	return errors.ErrInternal(err)
}
