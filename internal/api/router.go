// Package api serves a read-only reporting view over a completed replay.
// It exposes no mutation: the engine is the only path by which account
// state changes, and it has finished by the time this router is mounted.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/ledger"
)

// Dependencies wires the router to the rest of the application.
type Dependencies struct {
	Logger *slog.Logger
	Ledger *ledger.Ledger
	Report engine.Report
}

// NewRouter creates the chi router with all reporting routes mounted.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	h := &handlers{ledger: deps.Ledger, report: deps.Report}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Get("/healthz", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/run", h.getRun)
		r.Get("/accounts", h.listAccounts)
		r.Get("/accounts/{client}", h.getAccount)
		r.Get("/accounts/{client}/log", h.getAccountLog)
	})

	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			l.Info("http_request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
			)
		})
	}
}
