package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/t-race/typerace/internal/domain"
	"github.com/t-race/typerace/internal/infra/metrics"
	"github.com/t-race/typerace/internal/logger"
)

// DefaultHistoryLimit is how many sessions are retained per user.
const DefaultHistoryLimit = 50

// SessionResult is what a finished session hands back to the client.
type SessionResult struct {
	Session         domain.TypingStat         `json:"session"`
	NewBadges       []string                  `json:"newBadges"`
	Evaluation      *domain.AchievementReport `json:"evaluation,omitempty"`
	EvaluationError string                    `json:"evaluationError,omitempty"`
	Stat            domain.UserStat           `json:"stat"`
	LevelUp         bool                      `json:"levelUp"`
	SkillLevel      string                    `json:"skillLevel"`
	LegacyBadges    []domain.EmbeddedBadge    `json:"legacyBadges"`
}

// SessionService records a completed typing session: lifetime counters,
// achievement evaluation, rolling history and the aggregate stat record.
type SessionService struct {
	store        domain.Store
	achievements *AchievementService
	stats        *StatService
	historyLimit int

	// Now stamps the session. Defaults to time.Now.
	Now func() time.Time
}

// NewSessionService creates the session recorder. historyLimit <= 0 uses
// DefaultHistoryLimit.
func NewSessionService(store domain.Store, achievements *AchievementService, stats *StatService, historyLimit int) *SessionService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &SessionService{
		store:        store,
		achievements: achievements,
		stats:        stats,
		historyLimit: historyLimit,
		Now:          time.Now,
	}
}

// Record stores one session for userID. A failed achievement evaluation is
// logged and reported in the result but never fails the recording.
//
// The session row is written before the lifetime counters and badge unlocks,
// so a failed write leaves the profile untouched and the client can retry.
// The evaluator skips that row when reading history.
func (s *SessionService) Record(ctx context.Context, userID string, sample domain.PerformanceSample) (*SessionResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing userId: %w", domain.ErrInvalidSample)
	}
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrUserNotFound)
	}

	session := domain.TypingStat{
		ID:         uuid.NewString(),
		UserID:     userID,
		WPM:        sample.WPM,
		Accuracy:   sample.Accuracy,
		TimePlayed: sample.TimePlayed,
		CreatedAt:  s.Now(),
	}
	if err := s.store.InsertTypingStat(ctx, session); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if _, err := s.store.RecordGame(ctx, userID, sample.WPM, sample.TimePlayed); err != nil {
		return nil, fmt.Errorf("record game: %w", err)
	}

	result := &SessionResult{Session: session, NewBadges: []string{}}

	report, err := s.achievements.evaluateSession(ctx, userID, sample, session.ID)
	if err != nil {
		logger.Error().Err(err).Str("user", userID).Msg("achievement evaluation failed")
		result.EvaluationError = err.Error()
	} else {
		result.Evaluation = report
		result.NewBadges = report.NewBadges
	}

	if n, err := s.store.TrimTypingStats(ctx, userID, s.historyLimit); err != nil {
		logger.Warn().Err(err).Str("user", userID).Msg("trim session history")
	} else if n > 0 {
		logger.Debug().Str("user", userID).Int64("removed", n).Msg("session history trimmed")
	}

	update, err := s.stats.UpdateUserStat(ctx, userID, sample.WPM)
	if err != nil {
		return nil, fmt.Errorf("update user stat: %w", err)
	}
	result.Stat = update.Stat
	result.LevelUp = update.LevelUp
	result.SkillLevel = update.Stat.SkillLevel
	result.LegacyBadges = update.NewBadges

	metrics.SessionsRecorded.Inc()
	metrics.SessionWPM.Observe(sample.WPM)
	if update.LevelUp {
		metrics.LevelUps.WithLabelValues(update.Stat.SkillLevel).Inc()
	}

	logger.Info().Str("user", userID).Float64("wpm", sample.WPM).Float64("accuracy", sample.Accuracy).
		Int("new_badges", len(result.NewBadges)).Bool("level_up", result.LevelUp).Msg("session recorded")
	return result, nil
}

// History returns the user's retained sessions, oldest first.
func (s *SessionService) History(ctx context.Context, userID string) ([]domain.TypingStat, error) {
	stats, err := s.store.TypingStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []domain.TypingStat{}
	}
	return stats, nil
}
