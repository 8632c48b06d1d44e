// Package health runs periodic liveness checks over the store and the badge
// catalog and publishes the results to /health and Prometheus.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/t-race/typerace/internal/infra/metrics"
	"github.com/t-race/typerace/internal/logger"
)

// DefaultInterval is how often the checks run.
const DefaultInterval = 60 * time.Second

// Pinger is a store that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Validator is a component that can re-check its own consistency.
type Validator interface {
	Validate() error
}

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	timeout  time.Duration
}

// NewChecker creates a checker for the store and catalog. dataDir is the
// SQLite directory; pass "" for stores without local files.
func NewChecker(store Pinger, catalog Validator, dataDir string) *Checker {
	checks := []Check{
		{
			Name: "store",
			CheckFn: func(ctx context.Context) error {
				return store.Ping(ctx)
			},
			RecoverFn: func(ctx context.Context) error {
				logger.Warn().Msg("store unreachable; requests will fail until it recovers")
				return nil
			},
		},
		{
			Name: "catalog",
			CheckFn: func(ctx context.Context) error {
				return catalog.Validate()
			},
		},
	}
	if dataDir != "" {
		checks = append(checks, Check{
			Name: "data_dir",
			CheckFn: func(ctx context.Context) error {
				return checkDataDir(dataDir)
			},
			RecoverFn: func(ctx context.Context) error {
				return os.MkdirAll(dataDir, 0o755)
			},
		})
	}
	return &Checker{
		interval: DefaultInterval,
		timeout:  5 * time.Second,
		checks:   checks,
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce executes every check and stores the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}

		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check.CheckFn(cctx)
		cancel()

		if err != nil {
			s.Error = err.Error()
			logger.Warn().Err(err).Str("check", check.Name).Msg("health check failed")
			if check.RecoverFn != nil {
				if rerr := check.RecoverFn(ctx); rerr != nil {
					logger.Error().Err(rerr).Str("check", check.Name).Msg("recovery failed")
				}
			}
			metrics.HealthStatus.WithLabelValues(check.Name).Set(0)
		} else {
			s.Healthy = true
			metrics.HealthStatus.WithLabelValues(check.Name).Set(1)
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", dir)
	}
	return nil
}
