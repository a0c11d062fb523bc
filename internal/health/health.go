// Package health serves the /health report and the liveness and readiness
// probes.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Status of one component or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the outcome of probing one component.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Report is the /health response body.
type Report struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker probes one dependency.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler aggregates registered checkers.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	version   string
	timeout   time.Duration
	startTime time.Time
	nowFunc   func() time.Time
}

// NewHandler returns a handler whose checks each get timeout to finish.
func NewHandler(version string, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Handler{
		checkers:  make(map[string]Checker),
		version:   version,
		timeout:   timeout,
		startTime: time.Now(),
		nowFunc:   time.Now,
	}
}

func (h *Handler) RegisterChecker(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = c
}

// Run executes every check.
func (h *Handler) Run(ctx context.Context) Report {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	report := Report{
		Status:        StatusHealthy,
		Timestamp:     h.nowFunc().UTC(),
		Checks:        make(map[string]Check, len(names)),
		Version:       h.version,
		UptimeSeconds: int64(h.nowFunc().Sub(h.startTime).Seconds()),
	}
	for _, name := range names {
		h.mu.RLock()
		c := h.checkers[name]
		h.mu.RUnlock()

		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		check := c.Check(cctx)
		cancel()

		report.Checks[name] = check
		if check.Status == StatusUnhealthy {
			report.Status = StatusUnhealthy
		}
	}
	return report
}

// Health writes the full report, 503 when any check failed.
func (h *Handler) Health(c *gin.Context) {
	report := h.Run(c.Request.Context())
	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}

// Readiness answers 200 "ready" only when every check passes.
func (h *Handler) Readiness(c *gin.Context) {
	if h.Run(c.Request.Context()).Status == StatusUnhealthy {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}

// Liveness always answers 200 while the process serves requests.
func Liveness(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// PingChecker adapts a ping function, such as the datastore's, to Checker.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (p *PingChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := p.ping(ctx)
	check := Check{
		Name:       p.name,
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}
