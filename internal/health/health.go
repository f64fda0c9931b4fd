// Package health runs preflight checks before input is locked.
//
// Each check runs concurrently with its own timeout and panic recovery.
// Results come back in registration order so they can be printed as a
// stable list.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status represents the outcome of a check.
type Status string

const (
	// StatusHealthy means the check passed.
	StatusHealthy Status = "healthy"
	// StatusDegraded means vegitate works, with a feature missing.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy means locking would fail.
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown means the check has not run.
	StatusUnknown Status = "unknown"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name     string         `json:"name"`
	Critical bool           `json:"critical"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
	Error    string         `json:"error,omitempty"`
}

// Check performs a single check.
type Check func(ctx context.Context) CheckResult

// Component is a registered check.
type Component struct {
	Name string
	// Critical checks make the overall status unhealthy when they fail;
	// others only degrade it.
	Critical bool
	Check    Check
	Timeout  time.Duration
}

// Checker runs registered checks.
type Checker struct {
	mu         sync.Mutex
	components []*Component
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Register adds a check. Registering a name twice replaces the first.
func (c *Checker) Register(comp *Component) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if comp.Timeout == 0 {
		comp.Timeout = DefaultTimeout
	}
	for i, existing := range c.components {
		if existing.Name == comp.Name {
			c.components[i] = comp
			return
		}
	}
	c.components = append(c.components, comp)
}

// RegisterFunc registers a check with the default timeout.
func (c *Checker) RegisterFunc(name string, critical bool, check Check) {
	c.Register(&Component{Name: name, Critical: critical, Check: check})
}

// Run executes every check and returns results in registration order.
func (c *Checker) Run(ctx context.Context) []CheckResult {
	c.mu.Lock()
	comps := append([]*Component(nil), c.components...)
	c.mu.Unlock()

	results := make([]CheckResult, len(comps))
	var wg sync.WaitGroup
	for i, comp := range comps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runOne(ctx, comp)
		}()
	}
	wg.Wait()
	return results
}

func runOne(ctx context.Context, comp *Component) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, comp.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan CheckResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- CheckResult{
					Status:  StatusUnhealthy,
					Message: "check panicked",
					Error:   fmt.Sprintf("%v", r),
				}
			}
		}()
		done <- comp.Check(ctx)
	}()

	var result CheckResult
	select {
	case result = <-done:
	case <-ctx.Done():
		result = CheckResult{
			Status:  StatusUnhealthy,
			Message: "check timed out",
			Error:   ctx.Err().Error(),
		}
	}

	result.Name = comp.Name
	result.Critical = comp.Critical
	result.Duration = time.Since(start)
	if result.Status == "" {
		result.Status = StatusUnknown
	}
	return result
}

// Overall aggregates results. A failed critical check is unhealthy; any
// other failure degrades.
func Overall(results []CheckResult) Status {
	hasUnknown := false
	hasDegraded := false

	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			if r.Critical {
				return StatusUnhealthy
			}
			hasDegraded = true
		case StatusDegraded:
			hasDegraded = true
		case StatusUnknown:
			if r.Critical {
				hasUnknown = true
			}
		}
	}

	if hasUnknown {
		return StatusUnknown
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// Report is the full preflight outcome.
type Report struct {
	Status    Status        `json:"status"`
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// Report runs all checks and aggregates them.
func (c *Checker) Report(ctx context.Context) Report {
	results := c.Run(ctx)
	return Report{
		Status:    Overall(results),
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// Healthy is a convenience constructor.
func Healthy(msg string) CheckResult {
	return CheckResult{Status: StatusHealthy, Message: msg}
}

// Failed returns an unhealthy result carrying err.
func Failed(msg string, err error) CheckResult {
	r := CheckResult{Status: StatusUnhealthy, Message: msg}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
