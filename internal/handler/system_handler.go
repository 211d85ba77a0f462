package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

// DependencyCheck probes one backing service.
type DependencyCheck func(ctx context.Context) error

// QueueDepth reports the number of jobs waiting in a queue.
type QueueDepth func(ctx context.Context) (int64, error)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	startTime time.Time
	checks    map[string]DependencyCheck
	queues    map[string]QueueDepth
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(checks map[string]DependencyCheck, queues map[string]QueueDepth, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		checks:    checks,
		queues:    queues,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readiness struct {
	Status       string                      `json:"status"`
	Uptime       string                      `json:"uptime"`
	Goroutines   int                         `json:"goroutines"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
	Queues       map[string]int64            `json:"queues,omitempty"`
}

// Health godoc
// GET /health
// Liveness probe. Never touches dependencies.
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// GET /health/ready
// Pings every dependency and reports queue backlogs. Responds 503 when any
// dependency is down.
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	out := readiness{
		Status:       "ok",
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
		Dependencies: make(map[string]dependencyStatus, len(h.checks)),
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			out.Status = "degraded"
			out.Dependencies[name] = dependencyStatus{Status: "down", Error: err.Error()}
			continue
		}
		out.Dependencies[name] = dependencyStatus{Status: "up"}
	}

	if len(h.queues) > 0 {
		out.Queues = make(map[string]int64, len(h.queues))
		for name, depth := range h.queues {
			n, err := depth(ctx)
			if err != nil {
				n = -1
			}
			out.Queues[name] = n
		}
	}

	status := http.StatusOK
	if out.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, out)
}
