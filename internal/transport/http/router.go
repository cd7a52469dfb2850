// Package httptransport assembles the public HTTP surface of the ledger.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillchain/pkg/platform/middleware/auth"
	"skillchain/pkg/platform/middleware/request"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	// DefaultMaxBodyBytes leaves room for base64 metadata references well above the default length limit.
	DefaultMaxBodyBytes = 64 << 10
)

// CallRoutes mounts signed calls. The router passed in already requires authentication.
type CallRoutes interface {
	RegisterCalls(r chi.Router)
}

// QueryRoutes mounts unauthenticated read endpoints.
type QueryRoutes interface {
	RegisterQueries(r chi.Router)
}

// HealthRoutes mounts liveness and readiness probes.
type HealthRoutes interface {
	Register(r chi.Router)
}

// Config carries the cross-cutting dependencies of the router.
type Config struct {
	Logger         *slog.Logger
	Validator      auth.JWTValidator
	Latency        request.LatencyObserver
	Gatherer       prometheus.Gatherer
	Health         HealthRoutes
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires middleware, probes, metrics, queries and authenticated calls.
func NewRouter(cfg Config, calls []CallRoutes, queries []QueryRoutes) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.ClientIP)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.LatencyMiddleware(cfg.Latency))
	r.Use(request.Timeout(cfg.RequestTimeout))
	r.Use(request.BodyLimit(cfg.MaxBodyBytes))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		for _, q := range queries {
			q.RegisterQueries(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))
			for _, c := range calls {
				c.RegisterCalls(r)
			}
		})
	})

	return r
}
