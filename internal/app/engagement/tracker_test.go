package engagement_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-race/typerace/internal/app/engagement"
	"github.com/t-race/typerace/internal/domain"
)

func newTracker() *engagement.Tracker {
	return engagement.NewTracker(engagement.DefaultCatalog())
}

// ─── Skill Tiers ────────────────────────────────────────────────────────────

func TestSkillFor_Boundaries(t *testing.T) {
	cases := map[float64]string{
		0:   "🐢 Beginner",
		20:  "🐢 Beginner",
		21:  "✍️ Learner",
		45:  "🎯 Skilled",
		51:  "⚙️ Experienced",
		95:  "🔥 Advanced",
		111: "👑 Pro / Legendary",
		300: "👑 Pro / Legendary",
	}
	for wpm, want := range cases {
		assert.Equal(t, want, engagement.SkillFor(wpm), "wpm %v", wpm)
	}
}

// ─── Fold ───────────────────────────────────────────────────────────────────

func TestProcessResult_BrandNewUser(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	got := newTracker().ProcessResult(domain.UserStat{}, 45, now)

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)
	assert.Equal(t, int64(1), got.RacesCompleted)
	assert.Equal(t, 45.0, got.LastTestWPM)
	assert.Equal(t, int64(45), got.XPPoints)
	assert.Equal(t, "🎯 Skilled", got.SkillLevel)
	assert.True(t, got.LastTestDate.Equal(now))

	require.Len(t, got.Badges, 3)
	assert.Equal(t, "🎈 Warm-Up Starter", got.Badges[0].Name)
	assert.Equal(t, "🎯 Focused Fingers", got.Badges[2].Name)
	assert.True(t, got.Badges[0].DateEarned.Equal(now))
}

func TestProcessResult_ConsecutiveDaysExtendStreak(t *testing.T) {
	tr := newTracker()
	day := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)

	var st domain.UserStat
	for i, wpm := range []float64{40, 40, 42, 50} {
		st = tr.ProcessResult(st, wpm, day.AddDate(0, 0, i))
		assert.Equal(t, i+1, st.CurrentStreak, "day %d", i)
	}
	assert.Equal(t, 4, st.LongestStreak)
}

func TestProcessResult_GapResetsStreak(t *testing.T) {
	tr := newTracker()
	day := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)

	st := tr.ProcessResult(domain.UserStat{}, 40, day)
	st = tr.ProcessResult(st, 41, day.AddDate(0, 0, 1))
	st = tr.ProcessResult(st, 42, day.AddDate(0, 0, 3))

	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 2, st.LongestStreak)
}

func TestProcessResult_SlowerNextDayResets(t *testing.T) {
	tr := newTracker()
	day := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)

	st := tr.ProcessResult(domain.UserStat{}, 60, day)
	st = tr.ProcessResult(st, 59, day.AddDate(0, 0, 1))
	assert.Equal(t, 1, st.CurrentStreak)
}

func TestProcessResult_CalendarDaysNotHours(t *testing.T) {
	tr := newTracker()

	// 23:59 then 00:01 the next day: consecutive.
	late := time.Date(2025, 7, 1, 23, 59, 0, 0, time.UTC)
	st := tr.ProcessResult(domain.UserStat{}, 40, late)
	st = tr.ProcessResult(st, 40, late.Add(2*time.Minute))
	assert.Equal(t, 2, st.CurrentStreak)

	// Two tests on the same day: not consecutive.
	morning := time.Date(2025, 7, 5, 0, 30, 0, 0, time.UTC)
	st = tr.ProcessResult(domain.UserStat{}, 40, morning)
	st = tr.ProcessResult(st, 40, morning.Add(20*time.Hour))
	assert.Equal(t, 1, st.CurrentStreak)
}

func TestProcessResult_UsesCallerLocation(t *testing.T) {
	tr := newTracker()
	loc := time.FixedZone("UTC+10", 10*3600)

	// 2025-07-01 22:00 local, then 2025-07-02 07:00 local (21:00 UTC on 07-01).
	first := time.Date(2025, 7, 1, 22, 0, 0, 0, loc)
	second := time.Date(2025, 7, 2, 7, 0, 0, 0, loc)

	st := tr.ProcessResult(domain.UserStat{}, 40, first.UTC())
	st = tr.ProcessResult(st, 40, second)
	assert.Equal(t, 2, st.CurrentStreak)
}

func TestProcessResult_DoesNotMutateInput(t *testing.T) {
	cur := domain.UserStat{
		UserID: "u1",
		Badges: make([]domain.EmbeddedBadge, 0, 8),
	}
	_ = newTracker().ProcessResult(cur, 130, time.Now())
	assert.Empty(t, cur.Badges)
	assert.Zero(t, cur.RacesCompleted)
}

func TestProcessResult_BadgesMatchedByName(t *testing.T) {
	cur := domain.UserStat{Badges: []domain.EmbeddedBadge{{Name: "🎈 Warm-Up Starter", Icon: "🎈"}}}
	got := newTracker().ProcessResult(cur, 25, time.Now())
	assert.Len(t, got.Badges, 1, "already held by name")
}

func TestProcessResult_XPRounds(t *testing.T) {
	got := newTracker().ProcessResult(domain.UserStat{XPPoints: 10}, 45.5, time.Now())
	assert.Equal(t, int64(56), got.XPPoints)
}

func TestProcessResult_Invariants(t *testing.T) {
	tr := newTracker()
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	var st domain.UserStat
	var xp int64
	const n = 500
	for i := 0; i < n; i++ {
		wpm := float64(rng.Intn(14000)) / 100
		now = now.Add(time.Duration(rng.Intn(60)) * time.Hour)
		st = tr.ProcessResult(st, wpm, now)
		xp += int64(math.Round(wpm))

		require.GreaterOrEqual(t, st.LongestStreak, st.CurrentStreak, "step %d", i)
		require.GreaterOrEqual(t, st.CurrentStreak, 1)
	}
	assert.Equal(t, int64(n), st.RacesCompleted)
	assert.Equal(t, xp, st.XPPoints)
}
