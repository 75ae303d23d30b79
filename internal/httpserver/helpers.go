package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/curepoint/pharmacy/internal/service"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/labstack/echo/v4"
)

// statusFor maps service sentinels onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, session.ErrRoleConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyOrder):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the text shown to the caller; storage details stay in the log.
func publicMessage(err error, status int) string {
	switch {
	case errors.Is(err, service.ErrEmptyOrder):
		return "Your cart is empty."
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials."
	case errors.Is(err, session.ErrRoleConflict):
		return "Already logged in with another role. Log out first."
	case status >= http.StatusInternalServerError:
		return "Something went wrong. Please try again."
	}
	msg := err.Error()
	for _, sentinel := range []error{service.ErrValidation, service.ErrNotFound, service.ErrConflict} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}

// fail logs err under event and answers with the matching HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return echo.NewHTTPError(status, publicMessage(err, status))
}

func pageResponse(items any, page, offset, limit int, total int64) map[string]any {
	return map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}
}

// flashesOf consumes pending flashes and persists that they were shown.
func flashesOf(c echo.Context, sess *session.Session, l *slog.Logger) []session.Flash {
	flashes := sess.Flashes()
	if len(flashes) > 0 {
		if err := sess.Save(c); err != nil {
			l.Error("session_save_error", "error", err)
		}
	}
	return flashes
}
