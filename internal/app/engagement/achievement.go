package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/t-race/typerace/internal/domain"
	"github.com/t-race/typerace/internal/infra/metrics"
	"github.com/t-race/typerace/internal/infra/retry"
	"github.com/t-race/typerace/internal/logger"
)

// AchievementService evaluates a session against every badge the user has
// not unlocked yet and persists the ones newly earned. Unlocks are permanent:
// an unlocked badge is never evaluated or awarded again.
type AchievementService struct {
	store   domain.Store
	catalog *Catalog
	retry   retry.Config

	// Now stamps unlockedAt. Defaults to time.Now.
	Now func() time.Time
}

// NewAchievementService creates the orchestrator.
func NewAchievementService(store domain.Store, catalog *Catalog, retryCfg retry.Config) *AchievementService {
	return &AchievementService{
		store:   store,
		catalog: catalog,
		retry:   retryCfg,
		Now:     time.Now,
	}
}

// Catalog returns the catalog the service evaluates.
func (a *AchievementService) Catalog() *Catalog {
	return a.catalog
}

// EvaluateAchievements runs one pass for userID. The sample must not yet be
// part of the user's stored session history.
func (a *AchievementService) EvaluateAchievements(ctx context.Context, userID string, sample domain.PerformanceSample) (*domain.AchievementReport, error) {
	return a.evaluateSession(ctx, userID, sample, "")
}

// evaluateSession runs one pass for a sample whose session row may already
// be stored under sessionID; that row is left out of the history.
func (a *AchievementService) evaluateSession(ctx context.Context, userID string, sample domain.PerformanceSample, sessionID string) (*domain.AchievementReport, error) {
	start := time.Now()
	report, err := a.evaluate(ctx, userID, sample, sessionID)
	metrics.EvaluationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Evaluations.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.Evaluations.WithLabelValues("ok").Inc()
	return report, nil
}

func (a *AchievementService) evaluate(ctx context.Context, userID string, sample domain.PerformanceSample, sessionID string) (*domain.AchievementReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing userId: %w", domain.ErrInvalidSample)
	}
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	unlocked, err := a.store.UnlockedBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked badges: %w", err)
	}
	owned := make(map[string]bool, len(unlocked))
	for _, r := range unlocked {
		owned[r.BadgeID] = true
	}

	var pending []domain.BadgeDefinition
	for _, b := range a.catalog.badges {
		if !owned[b.BadgeID] {
			pending = append(pending, b)
		}
	}

	hist, err := loadHistory(ctx, a.store, userID, pending, true, sessionID)
	if err != nil {
		return nil, err
	}

	report := &domain.AchievementReport{
		NewBadges:         []string{},
		EvaluationResults: make([]domain.EvaluationResult, 0, len(pending)),
		TotalEvaluated:    len(pending),
	}
	for _, b := range pending {
		r, err := EvaluateBadge(b, sample, hist)
		if err != nil {
			return nil, err
		}
		report.EvaluationResults = append(report.EvaluationResults, r)
		if r.Unlocked {
			report.NewBadges = append(report.NewBadges, b.BadgeID)
		}
	}

	if err := a.unlock(ctx, userID, report.NewBadges); err != nil {
		return nil, err
	}
	return report, nil
}

// unlock persists new badge records. A duplicate-key conflict means a
// concurrent pass already stored the badge and counts as success.
func (a *AchievementService) unlock(ctx context.Context, userID string, badgeIDs []string) error {
	if len(badgeIDs) == 0 {
		return nil
	}

	now := a.Now()
	records := make([]domain.UserBadgeRecord, len(badgeIDs))
	for i, id := range badgeIDs {
		records[i] = domain.UserBadgeRecord{UserID: userID, BadgeID: id, UnlockedAt: now}
	}

	// Ids written across attempts: a failed attempt may still have stored some.
	var inserted []string
	err := retry.Do(ctx, a.retry, "insert_user_badges", func(ctx context.Context) error {
		ids, err := a.store.InsertUserBadges(ctx, records)
		inserted = append(inserted, ids...)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateBadge):
		metrics.UnlockConflicts.Add(float64(len(records) - len(inserted)))
		logger.Warn().Err(err).Str("user", userID).Msg("some badges were already unlocked")
	case err != nil:
		logger.Error().Err(err).Str("user", userID).Strs("badges", badgeIDs).Msg("unlock badges")
		return fmt.Errorf("persist unlocks: %w", err)
	}

	for _, id := range inserted {
		metrics.BadgesUnlocked.WithLabelValues(id).Inc()
	}
	logger.Info().Str("user", userID).Strs("badges", badgeIDs).Strs("inserted", inserted).Msg("badges unlocked")
	return nil
}

// MarkViewed records that the unlock celebration for badgeIDs has been
// shown. Returns how many records flipped.
func (a *AchievementService) MarkViewed(ctx context.Context, userID string, badgeIDs []string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("missing userId: %w", domain.ErrInvalidUser)
	}
	if len(badgeIDs) == 0 {
		return 0, domain.ErrNoBadgesSpecified
	}

	seen := make(map[string]bool, len(badgeIDs))
	ids := make([]string, 0, len(badgeIDs))
	for _, id := range badgeIDs {
		if _, ok := a.catalog.Lookup(id); !ok {
			return 0, fmt.Errorf("%q: %w", id, domain.ErrUnknownBadge)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return a.store.MarkBadgesViewed(ctx, userID, ids)
}

// ─── History Loading ────────────────────────────────────────────────────────

// loadHistory fetches only what the given badges need: the user record for
// counter criteria and enough recent sessions for the longest streak.
// With requireUser a missing profile is ErrUserNotFound; otherwise it reads
// as an empty profile. A non-empty skipSession is dropped from Recent.
func loadHistory(ctx context.Context, store domain.Store, userID string, badges []domain.BadgeDefinition, requireUser bool, skipSession string) (domain.History, error) {
	var hist domain.History

	needUser := false
	longest := 0
	for _, b := range badges {
		switch c := b.Criterion.(type) {
		case domain.GamesPlayedCriterion, domain.TimePlayedCriterion:
			needUser = true
		case domain.StreakCriterion:
			longest = max(longest, c.Length)
		}
	}

	if needUser {
		u, err := store.GetUser(ctx, userID)
		if err != nil {
			return hist, fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			if requireUser {
				return hist, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
			}
			u = &domain.User{UserID: userID}
		}
		hist.User = u
	}

	if longest > 0 {
		limit := longest + 1
		if skipSession != "" {
			limit++
		}
		recent, err := store.RecentTypingStats(ctx, userID, limit)
		if err != nil {
			return hist, fmt.Errorf("load recent sessions: %w", err)
		}
		hist.Recent = withoutSession(recent, skipSession, longest+1)
	}
	return hist, nil
}

// withoutSession drops the session with id and keeps at most limit entries.
func withoutSession(recent []domain.TypingStat, id string, limit int) []domain.TypingStat {
	out := recent[:0]
	for _, t := range recent {
		if id != "" && t.ID == id {
			continue
		}
		out = append(out, t)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
