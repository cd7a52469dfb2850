// Package health serves the liveness, readiness and status probes.
package health

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	id "skillchain/pkg/domain"
	"skillchain/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// CheckFunc returns nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// BlockSource reports the block number new calls are stamped with.
type BlockSource interface {
	BlockNumber(ctx context.Context) (id.BlockNumber, error)
}

type Handler struct {
	startTime    time.Time
	environment  string
	checkTimeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
	blocks BlockSource
}

func New(environment string) *Handler {
	return &Handler{
		startTime:    time.Now(),
		environment:  environment,
		checkTimeout: DefaultCheckTimeout,
		checks:       make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency to the readiness probe.
// Registering a name twice replaces the earlier check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// SetBlockSource makes /health report the current block.
func (h *Handler) SetBlockSource(blocks BlockSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.blocks = blocks
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness runs every check concurrently, each under its own timeout,
// and answers 503 if any one fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(checks))
		healthy = true
		g       errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
			defer cancel()
			err := check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = "down: " + err.Error()
				healthy = false
			} else {
				results[name] = "up"
			}
			return nil
		})
	}
	_ = g.Wait()

	if !healthy {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Checks: results})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Checks: results})
}

type StatusResponse struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	Environment   string          `json:"environment"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Timestamp     string          `json:"timestamp"`
	BlockNumber   *id.BlockNumber `json:"block_number,omitempty"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.RLock()
	blocks := h.blocks
	h.mu.RUnlock()
	if blocks != nil {
		if n, err := blocks.BlockNumber(r.Context()); err == nil {
			resp.BlockNumber = &n
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
