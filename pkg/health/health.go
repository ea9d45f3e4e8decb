// Package health provides the liveness and readiness endpoints of the ops server.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const checkTimeout = 5 * time.Second

// CheckResult represents the result of a health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Response represents a health check response
type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// CheckFunc pings one dependency
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
	// optional dependencies degrade the service instead of failing it
	optional bool
}

// Checker runs the registered dependency checks
type Checker struct {
	startTime time.Time
	version   string
	ready     atomic.Bool
	mu        sync.RWMutex
	checks    []check
}

// NewChecker creates a new health checker
func NewChecker(version string) *Checker {
	return &Checker{
		startTime: time.Now(),
		version:   version,
	}
}

// Register adds a required dependency check
func (c *Checker) Register(name string, fn CheckFunc) {
	c.add(check{name: name, fn: fn})
}

// RegisterOptional adds a check whose failure only degrades the service
func (c *Checker) RegisterOptional(name string, fn CheckFunc) {
	c.add(check{name: name, fn: fn, optional: true})
}

func (c *Checker) add(ch check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, ch)
}

// SetReady marks the service as ready to receive traffic
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// IsReady returns whether the service is ready
func (c *Checker) IsReady() bool {
	return c.ready.Load()
}

// LivenessHandler reports that the process is up
func (c *Checker) LivenessHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		ReportedAt: time.Now(),
	})
}

// ReadinessHandler reports unhealthy until startup finished, then runs the checks
func (c *Checker) ReadinessHandler(ctx echo.Context) error {
	if !c.IsReady() {
		return ctx.JSON(http.StatusServiceUnavailable, Response{
			Status:     StatusUnhealthy,
			Version:    c.version,
			ReportedAt: time.Now(),
			Checks: map[string]CheckResult{
				"startup": {Status: StatusUnhealthy, Message: "service is still starting up"},
			},
		})
	}
	return c.HealthHandler(ctx)
}

// HealthHandler runs every check and reports the overall status
func (c *Checker) HealthHandler(ctx echo.Context) error {
	report := c.Report(ctx.Request().Context())

	statusCode := http.StatusOK
	if report.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	return ctx.JSON(statusCode, report)
}

// Report runs every check
func (c *Checker) Report(ctx context.Context) Response {
	checks := c.runChecks(ctx)
	return Response{
		Status:     overallStatus(checks),
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     checks,
		ReportedAt: time.Now(),
	}
}

func (c *Checker) runChecks(ctx context.Context) map[string]CheckResult {
	c.mu.RLock()
	registered := append([]check(nil), c.checks...)
	c.mu.RUnlock()

	sort.Slice(registered, func(i, j int) bool { return registered[i].name < registered[j].name })

	results := make(map[string]CheckResult, len(registered))
	for _, ch := range registered {
		results[ch.name] = run(ctx, ch)
	}
	return results
}

func run(ctx context.Context, ch check) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := ch.fn(ctx); err != nil {
		status := StatusUnhealthy
		if ch.optional {
			status = StatusDegraded
		}
		return CheckResult{
			Status:  status,
			Message: err.Error(),
			Latency: time.Since(start).String(),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Latency: time.Since(start).String(),
	}
}

func overallStatus(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, check := range checks {
		switch check.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// RegisterRoutes registers the probes at /health, /live and /ready
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", c.HealthHandler)
	e.GET("/live", c.LivenessHandler)
	e.GET("/ready", c.ReadinessHandler)
}
