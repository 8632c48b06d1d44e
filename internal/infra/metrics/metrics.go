// Package metrics provides Prometheus metrics for typerace.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Achievements ───────────────────────────────────────────────────────────

// Evaluations counts orchestrator passes by outcome (ok, error).
var Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "achievement_evaluations_total",
	Help:      "Total achievement evaluation passes.",
}, []string{"outcome"})

// EvaluationLatency tracks the duration of one orchestrator pass.
var EvaluationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "typerace",
	Name:      "achievement_evaluation_seconds",
	Help:      "Achievement evaluation duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// BadgesUnlocked counts newly persisted badges.
var BadgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "badges_unlocked_total",
	Help:      "Total badges unlocked.",
}, []string{"badge"})

// UnlockConflicts counts duplicate unlock inserts lost to a concurrent pass.
var UnlockConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "badge_unlock_conflicts_total",
	Help:      "Duplicate badge inserts tolerated.",
})

// StoreRetries counts retried persistence writes by operation.
var StoreRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "store_retries_total",
	Help:      "Persistence writes retried after a failure.",
}, []string{"op"})

// ─── Sessions ───────────────────────────────────────────────────────────────

// SessionsRecorded counts typing sessions accepted.
var SessionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "sessions_recorded_total",
	Help:      "Total typing sessions recorded.",
})

// SessionWPM tracks the distribution of recorded speeds.
var SessionWPM = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "typerace",
	Name:      "session_wpm",
	Help:      "Words per minute of recorded sessions.",
	Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120, 130},
})

// LevelUps counts skill-tier changes by the new tier.
var LevelUps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "level_ups_total",
	Help:      "Skill level changes.",
}, []string{"skill"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "typerace",
	Name:      "health_status",
	Help:      "Health check status (1=healthy, 0=unhealthy).",
}, []string{"check"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts API requests by route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests.",
}, []string{"route", "status"})

// RateLimited counts requests rejected by the per-IP limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "typerace",
	Name:      "http_rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})
