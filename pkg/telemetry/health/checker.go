package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lcm-hq/intellimap/pkg/limits/storage"
)

// Status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DefaultTimeout bounds a single check when New is given zero.
const DefaultTimeout = 5 * time.Second

// ErrCheckTimeout is reported when a check does not return in time.
var ErrCheckTimeout = errors.New("health check timeout")

// CheckFunc returns nil when its component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the aggregated answer to a probe.
type Report struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Ready reports whether every check passed.
func (r Report) Ready() bool {
	return r.Status == StatusReady || r.Status == StatusOK
}

// Checker runs registered checks. It is safe for concurrent use.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// New creates a Checker whose checks each get timeout.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{checks: make(map[string]CheckFunc), timeout: timeout}
}

// Register adds or replaces the check called name.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered check names, sorted.
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

// Liveness reports that the process is up.
func (c *Checker) Liveness() Report {
	return Report{Status: StatusOK, Timestamp: time.Now()}
}

// Readiness runs all checks and folds them into one report.
func (c *Checker) Readiness(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
		g       errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			res := c.run(ctx, check)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusReady
	for _, res := range results {
		if res.Status != StatusOK {
			status = StatusDegraded
			break
		}
	}
	return Report{Status: status, Checks: results, Timestamp: time.Now()}
}

func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	res := CheckResult{Status: StatusOK, Duration: time.Since(start)}
	if err != nil {
		res.Status = StatusUnhealthy
		res.Message = err.Error()
	}
	return res
}

// StoreCheck probes a rate window store with a read.
func StoreCheck(store storage.Store) CheckFunc {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, "health:probe")
		return err
	}
}

// FlagCheck fails with err until set returns true. It adapts an atomic
// "started" flag into a readiness check.
func FlagCheck(set func() bool, err error) CheckFunc {
	return func(context.Context) error {
		if set() {
			return nil
		}
		return err
	}
}
