package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func valueOf(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestAchievementMetrics_Registered(t *testing.T) {
	Evaluations.WithLabelValues("ok").Inc()
	EvaluationLatency.Observe(0.002)
	BadgesUnlocked.WithLabelValues("first_steps").Inc()
	UnlockConflicts.Inc()
	StoreRetries.WithLabelValues("insert_user_badges").Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"typerace_achievement_evaluations_total",
		"typerace_achievement_evaluation_seconds",
		"typerace_badges_unlocked_total",
		"typerace_badge_unlock_conflicts_total",
		"typerace_store_retries_total",
	} {
		assert.True(t, names[name], "%s not found in gathered metrics", name)
	}
}

func TestSessionMetrics(t *testing.T) {
	before := valueOf(t, SessionsRecorded)
	SessionsRecorded.Inc()
	SessionWPM.Observe(45)
	LevelUps.WithLabelValues("🎯 Skilled").Inc()

	assert.Equal(t, before+1, valueOf(t, SessionsRecorded))
	assert.Equal(t, 1.0, valueOf(t, LevelUps.WithLabelValues("🎯 Skilled")))
}

func TestHealthStatus(t *testing.T) {
	HealthStatus.WithLabelValues("store").Set(1)
	HealthStatus.WithLabelValues("catalog").Set(0)

	assert.Equal(t, 1.0, valueOf(t, HealthStatus.WithLabelValues("store")))
	assert.Equal(t, 0.0, valueOf(t, HealthStatus.WithLabelValues("catalog")))
}

func TestHTTPMetrics(t *testing.T) {
	HTTPRequests.WithLabelValues("/api/badges", "200").Inc()
	RateLimited.Inc()

	names := gatheredNames(t)
	assert.True(t, names["typerace_http_requests_total"])
	assert.True(t, names["typerace_http_rate_limited_total"])
}
