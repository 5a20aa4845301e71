package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CheckFunc reports a component's health: nil when healthy.
type CheckFunc func(ctx context.Context) error

// Status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	Required   bool    `json:"required"`
	DurationMS float64 `json:"duration_ms"`
}

// Report is the aggregated readiness of the process.
type Report struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Ready reports whether the process should receive traffic. A failing
// optional check degrades the process without taking it out of rotation.
func (r Report) Ready() bool {
	return r.Status != StatusUnhealthy
}

type check struct {
	fn       CheckFunc
	required bool
}

// Checker runs named component checks concurrently.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
}

// New creates a checker. A zero timeout defaults to 5 seconds per check.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]check),
		timeout: timeout,
	}
}

// Require registers a check whose failure makes the process unready, such
// as "rules loaded".
func (c *Checker) Require(name string, fn CheckFunc) {
	c.register(name, fn, true)
}

// Observe registers a check whose failure only degrades the process, such
// as the evidence store.
func (c *Checker) Observe(name string, fn CheckFunc) {
	c.register(name, fn, false)
}

func (c *Checker) register(name string, fn CheckFunc, required bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check{fn: fn, required: required}
}

// Unregister removes a check.
func (c *Checker) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Names returns the registered check names in order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Liveness reports that the process is running.
func (c *Checker) Liveness() Report {
	return Report{Status: StatusOK, Timestamp: time.Now()}
}

// Readiness runs every check and aggregates the results.
func (c *Checker) Readiness(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]check, len(c.checks))
	for name, ch := range c.checks {
		checks[name] = ch
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, ch := range checks {
		wg.Add(1)
		go func(name string, ch check) {
			defer wg.Done()
			result := c.run(ctx, ch)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, ch)
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status == StatusOK {
			continue
		}
		if result.Required {
			status = StatusUnhealthy
			break
		}
		status = StatusDegraded
	}

	return Report{Status: status, Checks: results, Timestamp: time.Now()}
}

func (c *Checker) run(ctx context.Context, ch check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- ch.fn(ctx) }()

	result := CheckResult{Status: StatusOK, Required: ch.required}
	select {
	case err := <-done:
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		}
	case <-ctx.Done():
		result.Status = StatusUnhealthy
		result.Message = "health check timeout"
	}
	result.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	return result
}
