package http

import (
	"time"

	"workflow_server/core/port/in"
	"workflow_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// BreakerState is implemented by resilience.Breaker.
type BreakerState interface {
	Name() string
	State() string
}

type HealthHandler struct {
	pipeline  in.PipelineService
	breakers  []BreakerState
	latency   *metrics.LatencyRegistry
	outcomes  *metrics.OutcomeCounters
	startedAt time.Time
}

func NewHealthHandler(pipeline in.PipelineService, latency *metrics.LatencyRegistry, outcomes *metrics.OutcomeCounters, breakers ...BreakerState) *HealthHandler {
	return &HealthHandler{
		pipeline:  pipeline,
		breakers:  breakers,
		latency:   latency,
		outcomes:  outcomes,
		startedAt: time.Now(),
	}
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	app.Get("/stats", h.Stats)
}

// Health reports the resolved mode and which backends are configured.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(h.pipeline.Health())
}

// Ready fails while any outbound circuit is open.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := make(map[string]string, len(h.breakers))
	ready := true
	for _, b := range h.breakers {
		state := b.State()
		checks[b.Name()] = state
		if state == "open" {
			ready = false
		}
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !ready {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"mode":      h.pipeline.Health().Mode,
		"breakers":  checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats exposes per-stage latency percentiles and outcome counts.
func (h *HealthHandler) Stats(c *fiber.Ctx) error {
	latency := make(map[string]any)
	if h.latency != nil {
		for stage, s := range h.latency.AllStats() {
			latency[stage] = s.ToMap()
		}
	}

	outcomes := make(map[string]int64)
	if h.outcomes != nil {
		for o, n := range h.outcomes.Snapshot() {
			outcomes[string(o)] = n
		}
	}

	return SuccessResponse(c, fiber.Map{
		"uptime_sec": int64(time.Since(h.startedAt).Seconds()),
		"latency":    latency,
		"outcomes":   outcomes,
	})
}
