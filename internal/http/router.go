package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/classroom-scheduler/internal/application"
)

// RouterConfig wires handlers and cross-cutting middleware into the API mux.
type RouterConfig struct {
	Routines   *RoutineHandler
	Statuses   *RoomStatusHandler
	Identity   IdentityResolver
	Health     func(ctx context.Context) error
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the API handler. Every route except /healthz requires a
// bearer token; routine mutations additionally require an administrator role.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	logger := defaultLogger(cfg.Logger)

	authenticated := RequireIdentity(cfg.Identity, logger)
	administrators := RequireRoles(logger, application.RoleAdmin, application.RoleAssistantAdmin)

	read := func(h http.HandlerFunc) http.Handler { return authenticated(h) }
	manage := func(h http.HandlerFunc) http.Handler { return authenticated(administrators(h)) }

	mux.Handle("GET /healthz", healthHandler(cfg.Health, logger))

	if cfg.Routines != nil {
		mux.Handle("GET /routines", read(cfg.Routines.List))
		mux.Handle("POST /routines", manage(cfg.Routines.Create))
		mux.Handle("GET /routines/{id}", read(cfg.Routines.Get))
		mux.Handle("PATCH /routines/{id}", manage(cfg.Routines.Update))
		mux.Handle("DELETE /routines/{id}", manage(cfg.Routines.Delete))
		mux.Handle("GET /routines/day/{day}", read(cfg.Routines.ListByDay))
		mux.Handle("GET /routines/teacher/{teacher}", read(cfg.Routines.ListByTeacher))
	}

	if cfg.Statuses != nil {
		mux.Handle("GET /room-statuses", read(cfg.Statuses.List))
		mux.Handle("POST /room-statuses", read(cfg.Statuses.Create))
		mux.Handle("PATCH /room-statuses/{id}", read(cfg.Statuses.Update))
		mux.Handle("DELETE /room-statuses/{id}", read(cfg.Statuses.Delete))
		mux.Handle("GET /rooms/{id}/status", read(cfg.Statuses.Current))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func healthHandler(check func(ctx context.Context) error, logger *slog.Logger) http.Handler {
	responder := newResponder(logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		responder.writeSuccess(r.Context(), w, http.StatusOK, "ok", nil)
	})
}
