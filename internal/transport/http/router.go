// Package httptransport assembles the HTTP surface: middleware chain, public
// auth routes, authenticated API routes, health and metrics.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifelink/internal/platform/metrics"
	"lifelink/internal/platform/middleware"
)

// Registrar is a handler package that mounts its routes on a chi router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the service router. Everything under public skips auth;
// everything under protected requires a valid donor token.
func NewRouter(
	logger *slog.Logger,
	m *metrics.Metrics,
	validator middleware.TokenValidator,
	public []Registrar,
	protected []Registrar,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, reg := range public {
		reg.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		for _, reg := range protected {
			reg.Register(r)
		}
	})

	return r
}
