package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
)

func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail logs err under "<op>_error" and turns it into the matching HTTP error.
// Internal details never reach the client on 500.
func fail(l *slog.Logger, op string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", code, "reason", "internal error", "error", err)
		return echo.NewHTTPError(code, "internal error").SetInternal(err)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		l.Warn(op+"_error", "status", code, "reason", he.Message, "error", err)
		return he
	}
	msg := err.Error()
	l.Warn(op+"_error", "status", code, "reason", msg, "error", err)
	return echo.NewHTTPError(code, msg).SetInternal(err)
}
