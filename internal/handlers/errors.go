package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/playersden/gamehub/internal/logging"
	"github.com/playersden/gamehub/internal/service"
)

// respondError maps the service error taxonomy onto HTTP statuses. Unknown
// errors are logged and surfaced as a bare 500 so internals never leak.
func respondError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	}

	status := 0
	switch {
	case errors.Is(err, service.ErrNameTaken):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrRefreshTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRefreshTokenExpiredOrRevoked):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrOperationNotAllowed):
		status = http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	if status != 0 {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	logging.FromContext(c.Request().Context()).Error("unexpected error", "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
