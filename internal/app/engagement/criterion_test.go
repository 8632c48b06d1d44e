package engagement_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-race/typerace/internal/app/engagement"
	"github.com/t-race/typerace/internal/domain"
)

func sessions(accuracies ...float64) []domain.TypingStat {
	out := make([]domain.TypingStat, len(accuracies))
	for i, a := range accuracies {
		out[i] = domain.TypingStat{WPM: 50, Accuracy: a}
	}
	return out
}

// ─── WPM / Accuracy ─────────────────────────────────────────────────────────

func TestEvaluate_EveryWPMThreshold(t *testing.T) {
	for _, b := range engagement.DefaultCatalog().SpeedBadges() {
		target := b.Criterion.Threshold()

		hit, err := engagement.Evaluate(b.Criterion, domain.PerformanceSample{WPM: target}, domain.History{})
		require.NoError(t, err)
		assert.True(t, hit.Unlocked, "%s at %v", b.BadgeID, target)
		assert.Equal(t, 100.0, hit.Progress)

		miss, err := engagement.Evaluate(b.Criterion, domain.PerformanceSample{WPM: target - 1}, domain.History{})
		require.NoError(t, err)
		assert.False(t, miss.Unlocked, "%s at %v", b.BadgeID, target-1)
	}
}

func TestEvaluate_AccuracyProgressUnrounded(t *testing.T) {
	c := domain.AccuracyCriterion{Cmp: domain.AtLeast, Target: 95}
	r, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 94}, domain.History{})
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.InDelta(t, 98.947, r.Progress, 0.001)
	assert.Equal(t, 94.0, r.CurrentValue)
	assert.Equal(t, 95.0, r.TargetValue)
}

func TestEvaluate_EqualityComparator(t *testing.T) {
	c := domain.AccuracyCriterion{Cmp: domain.EqualTo, Target: 100}

	r, _ := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 100}, domain.History{})
	assert.True(t, r.Unlocked)

	r, _ = engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 99.9}, domain.History{})
	assert.False(t, r.Unlocked)
}

func TestEvaluate_ProgressClampsAt100(t *testing.T) {
	c := domain.WPMCriterion{Cmp: domain.AtLeast, Target: 20}
	r, err := engagement.Evaluate(c, domain.PerformanceSample{WPM: 130}, domain.History{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Progress)
	assert.Equal(t, 130.0, r.CurrentValue)
}

// ─── Counters ───────────────────────────────────────────────────────────────

func TestEvaluate_GamesPlayed(t *testing.T) {
	c := domain.GamesPlayedCriterion{Cmp: domain.AtLeast, Games: 100}
	h := domain.History{User: &domain.User{TotalGamesPlayed: 47}}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{}, h)
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.Equal(t, 47.0, r.Progress)
	assert.Equal(t, 47.0, r.CurrentValue)
}

func TestEvaluate_CountersNeedUser(t *testing.T) {
	for _, c := range []domain.Criterion{
		domain.GamesPlayedCriterion{Cmp: domain.AtLeast, Games: 1},
		domain.TimePlayedCriterion{Cmp: domain.AtLeast, Minutes: 1},
	} {
		_, err := engagement.Evaluate(c, domain.PerformanceSample{WPM: 200}, domain.History{})
		assert.ErrorIs(t, err, domain.ErrUserNotFound, string(c.Kind()))
	}
}

func TestEvaluate_TimePlayedMinutesAgainstSeconds(t *testing.T) {
	c := domain.TimePlayedCriterion{Cmp: domain.AtLeast, Minutes: 1}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{}, domain.History{User: &domain.User{TotalTimePlayed: 59}})
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.Equal(t, 60.0, r.TargetValue, "target is expressed in seconds")
	assert.InDelta(t, 98.333, r.Progress, 0.001)

	r, err = engagement.Evaluate(c, domain.PerformanceSample{}, domain.History{User: &domain.User{TotalTimePlayed: 60}})
	require.NoError(t, err)
	assert.True(t, r.Unlocked)
}

// ─── Streaks ────────────────────────────────────────────────────────────────

func TestEvaluate_StreakUnlocksWithContiguousRun(t *testing.T) {
	c := domain.StreakCriterion{Cmp: domain.Consecutive, Length: 3}
	h := domain.History{Recent: sessions(97, 95, 80)}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 96}, h)
	require.NoError(t, err)
	assert.True(t, r.Unlocked)
	assert.Equal(t, 3.0, r.CurrentValue)
	assert.Equal(t, 100.0, r.Progress)
}

func TestEvaluate_StreakInsufficientHistory(t *testing.T) {
	c := domain.StreakCriterion{Cmp: domain.Consecutive, Length: 3}
	h := domain.History{Recent: sessions(99, 99)}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 100}, h)
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.InDelta(t, 66.667, r.Progress, 0.001)
	assert.Equal(t, 2.0, r.CurrentValue)
}

func TestEvaluate_StreakCurrentSessionMustQualify(t *testing.T) {
	c := domain.StreakCriterion{Cmp: domain.Consecutive, Length: 3}
	h := domain.History{Recent: sessions(100, 100, 100, 100)}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 94.9}, h)
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.Zero(t, r.Progress)
	assert.Zero(t, r.CurrentValue)
	assert.Equal(t, 3.0, r.TargetValue)
}

func TestEvaluate_StreakShortHistoryCheckedFirst(t *testing.T) {
	c := domain.StreakCriterion{Cmp: domain.Consecutive, Length: 10}
	h := domain.History{Recent: sessions(99, 99, 99, 99, 99)}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 50}, h)
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.Equal(t, 50.0, r.Progress, "failing session with short history still reports len/length")
}

func TestEvaluate_StreakBrokenByGap(t *testing.T) {
	c := domain.StreakCriterion{Cmp: domain.Consecutive, Length: 4}
	h := domain.History{Recent: sessions(98, 70, 99, 99, 99)}

	r, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 99}, h)
	require.NoError(t, err)
	assert.False(t, r.Unlocked)
	assert.Equal(t, 2.0, r.CurrentValue)
	assert.Equal(t, 50.0, r.Progress)
}

// ─── Configuration Errors ───────────────────────────────────────────────────

func TestEvaluate_UnsupportedComparatorFails(t *testing.T) {
	c := domain.WPMCriterion{Cmp: domain.Consecutive, Target: 10}
	r, err := engagement.Evaluate(c, domain.PerformanceSample{WPM: 500}, domain.History{})

	require.Error(t, err)
	assert.False(t, r.Unlocked)
	assert.ErrorIs(t, err, domain.ErrUnsupportedCriterion)

	var uce *domain.UnsupportedCriterionError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, domain.KindWPM, uce.Kind)
	assert.Equal(t, domain.Consecutive, uce.Comparator)
	assert.Contains(t, err.Error(), `"wpm"`)
}

func TestEvaluate_StreakRejectsThresholdComparator(t *testing.T) {
	c := domain.StreakCriterion{Cmp: domain.AtLeast, Length: 3}
	_, err := engagement.Evaluate(c, domain.PerformanceSample{Accuracy: 100}, domain.History{Recent: sessions(100, 100, 100)})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCriterion)
}

func TestCriterionSpec_UnknownKind(t *testing.T) {
	_, err := domain.CriterionSpec{Type: "keystrokes", Condition: domain.AtLeast, Threshold: 5}.Criterion()
	assert.ErrorIs(t, err, domain.ErrUnsupportedCriterion)
}

func TestEvaluateBadge_NamesBadgeInError(t *testing.T) {
	b := domain.BadgeDefinition{BadgeID: "broken", Criterion: domain.GamesPlayedCriterion{Cmp: "<", Games: 3}}
	_, err := engagement.EvaluateBadge(b, domain.PerformanceSample{}, domain.History{User: &domain.User{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
