package engagement

import (
	"fmt"
	"math"

	"github.com/t-race/typerace/internal/domain"
)

// Evaluate checks one criterion against the session sample and persisted
// history. It never unlocks on an unsupported criterion: that is returned
// as an error wrapping domain.ErrUnsupportedCriterion.
func Evaluate(c domain.Criterion, s domain.PerformanceSample, h domain.History) (domain.EvaluationResult, error) {
	if err := domain.ValidateCriterion(c); err != nil {
		return domain.EvaluationResult{}, err
	}

	switch c := c.(type) {
	case domain.WPMCriterion:
		return compare(c.Cmp, s.WPM, c.Target), nil

	case domain.AccuracyCriterion:
		return compare(c.Cmp, s.Accuracy, c.Target), nil

	case domain.GamesPlayedCriterion:
		if h.User == nil {
			return domain.EvaluationResult{}, domain.ErrUserNotFound
		}
		return compare(c.Cmp, float64(h.User.TotalGamesPlayed), c.Games), nil

	case domain.TimePlayedCriterion:
		if h.User == nil {
			return domain.EvaluationResult{}, domain.ErrUserNotFound
		}
		// Catalog minutes against the seconds counter.
		return compare(c.Cmp, h.User.TotalTimePlayed, c.Minutes*60), nil

	case domain.StreakCriterion:
		return evaluateStreak(c.Length, s, h.Recent), nil
	}

	return domain.EvaluationResult{}, &domain.UnsupportedCriterionError{Kind: c.Kind(), Comparator: c.Comparator()}
}

// EvaluateBadge runs Evaluate for a catalog entry and stamps the badge id.
func EvaluateBadge(b domain.BadgeDefinition, s domain.PerformanceSample, h domain.History) (domain.EvaluationResult, error) {
	r, err := Evaluate(b.Criterion, s, h)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("badge %s: %w", b.BadgeID, err)
	}
	r.BadgeID = b.BadgeID
	return r, nil
}

func compare(cmp domain.Comparator, current, target float64) domain.EvaluationResult {
	unlocked := current >= target
	if cmp == domain.EqualTo {
		unlocked = current == target
	}
	return domain.EvaluationResult{
		Unlocked:     unlocked,
		Progress:     progress(current, target),
		CurrentValue: current,
		TargetValue:  target,
	}
}

// progress is the raw ratio as a percentage, clamped to [0, 100].
func progress(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Max(0, math.Min(100, current/target*100))
}

// evaluateStreak counts the current session plus the contiguous run of
// qualifying sessions right before it. recent is newest first and excludes
// the current session. Short history is checked before the current session,
// so a failing session with too few priors still reports len/length.
func evaluateStreak(length int, s domain.PerformanceSample, recent []domain.TypingStat) domain.EvaluationResult {
	target := float64(length)

	if len(recent) < length {
		return domain.EvaluationResult{
			Progress:     progress(float64(len(recent)), target),
			CurrentValue: float64(len(recent)),
			TargetValue:  target,
		}
	}

	if s.Accuracy < domain.StreakAccuracyBar {
		return domain.EvaluationResult{TargetValue: target}
	}

	count := 1
	for i := 0; i < min(len(recent), length-1); i++ {
		if recent[i].Accuracy < domain.StreakAccuracyBar {
			break
		}
		count++
	}

	return domain.EvaluationResult{
		Unlocked:     count >= length,
		Progress:     progress(float64(count), target),
		CurrentValue: float64(count),
		TargetValue:  target,
	}
}
