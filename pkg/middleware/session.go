package middleware

import (
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/lumina/errors"
	usecaseErrors "github.com/johnquangdev/lumina/internal/usecase/errors"
	sessionUsecase "github.com/johnquangdev/lumina/internal/usecase/session"
)

// SessionIDKey is the echo context key holding the resolved session id
const SessionIDKey = "session_id"

// RequireSession middleware: resolve the :id path parameter to an existing session
func RequireSession(sessionService sessionUsecase.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return errors.ErrInvalidArgument("session ID must be a valid UUID")
			}
			if _, err := sessionService.Get(c.Request().Context(), id); err != nil {
				if stdErrors.Is(err, usecaseErrors.ErrSessionNotFound) {
					return errors.ErrSessionNotFound(id.String())
				}
				return errors.ErrInternal(err)
			}
			c.Set(SessionIDKey, id)
			return next(c)
		}
	}
}

// SessionID returns the session id stored by RequireSession
func SessionID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(SessionIDKey).(uuid.UUID)
	return id, ok
}
