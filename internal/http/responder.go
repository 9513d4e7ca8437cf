package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/classroom-scheduler/internal/application"
)

var (
	errBadRequestBody    = errors.New("invalid request body")
	errInvalidRoutineID  = errors.New("routine id is required")
	errInvalidStatusID   = errors.New("room status id is required")
	errInvalidRoomID     = errors.New("room id is required")
	errInvalidInstant    = errors.New("at must be an RFC3339 timestamp")
	errMissingCredential = errors.New("authentication token is required")
	errInvalidCredential = errors.New("invalid or expired authentication token")
	errForbidden         = errors.New("you do not have permission to perform this action")
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope is the body shape of every API response.
type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Count   *int              `json:"count,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, envelope{Status: statusSuccess, Message: message, Data: data})
}

func (r responder) writeList(ctx context.Context, w http.ResponseWriter, message string, data any, count int) {
	r.writeJSON(ctx, w, http.StatusOK, envelope{Status: statusSuccess, Message: message, Data: data, Count: &count})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, envelope{Status: statusError, Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		vErr        *application.ValidationError
		notFoundErr *application.NotFoundError
		conflictErr *application.ConflictError
	)

	switch {
	case errors.Is(err, application.ErrUnauthenticated):
		r.writeJSON(ctx, w, http.StatusUnauthorized, envelope{Status: statusError, Message: errInvalidCredential.Error()})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, envelope{Status: statusError, Message: errForbidden.Error()})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusBadRequest, envelope{
			Status:  statusError,
			Message: "validation failed",
			Errors:  vErr.FieldErrors,
		})
	case errors.As(err, &notFoundErr):
		r.writeJSON(ctx, w, http.StatusNotFound, envelope{Status: statusError, Message: notFoundMessage(notFoundErr.Entity)})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, envelope{Status: statusError, Message: "resource not found"})
	case errors.As(err, &conflictErr):
		r.writeJSON(ctx, w, http.StatusConflict, envelope{Status: statusError, Message: conflictErr.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, envelope{Status: statusError, Message: "request timed out"})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, envelope{Status: statusError, Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func notFoundMessage(entity string) string {
	switch entity {
	case "course":
		return "Course not found"
	case "section":
		return "Section not found"
	case "room":
		return "Room not found"
	case "user":
		return "User not found"
	case "routine":
		return "Routine not found"
	case "room_status":
		return "Room status not found"
	default:
		return "resource not found"
	}
}
