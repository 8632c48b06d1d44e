package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/t-race/typerace/internal/domain"
)

// StatUpdate is the outcome of folding one race into a UserStat.
type StatUpdate struct {
	Stat      domain.UserStat        `json:"stat"`
	LevelUp   bool                   `json:"levelUp"`
	NewBadges []domain.EmbeddedBadge `json:"newBadges"`
}

// StatService loads, folds and stores the aggregate UserStat record.
type StatService struct {
	stats   domain.StatStore
	tracker *Tracker

	// Now is the race finish time. Defaults to time.Now.
	Now func() time.Time
}

// NewStatService creates a stat service.
func NewStatService(stats domain.StatStore, tracker *Tracker) *StatService {
	return &StatService{stats: stats, tracker: tracker, Now: time.Now}
}

// GetUserStat returns the stored record, or an empty one for a new user.
func (s *StatService) GetUserStat(ctx context.Context, userID string) (domain.UserStat, error) {
	st, err := s.stats.GetUserStat(ctx, userID)
	if err != nil {
		return domain.UserStat{}, fmt.Errorf("get user stat: %w", err)
	}
	if st == nil {
		return domain.UserStat{UserID: userID, Badges: []domain.EmbeddedBadge{}}, nil
	}
	return *st, nil
}

// UpdateUserStat folds a race at wpm into the user's record. The store
// applies the fold atomically, so concurrent races for one user each count.
// LevelUp is set when the skill title changed; NewBadges lists embedded
// badges not present before by name.
func (s *StatService) UpdateUserStat(ctx context.Context, userID string, wpm float64) (*StatUpdate, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing userId: %w", domain.ErrInvalidSample)
	}
	if wpm < 0 {
		return nil, fmt.Errorf("wpm %v is negative: %w", wpm, domain.ErrInvalidSample)
	}

	now := s.Now()
	cur, next, err := s.stats.UpdateUserStat(ctx, userID, func(st domain.UserStat) domain.UserStat {
		return s.tracker.ProcessResult(st, wpm, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update user stat: %w", err)
	}

	update := &StatUpdate{
		Stat:      next,
		LevelUp:   next.SkillLevel != cur.SkillLevel,
		NewBadges: []domain.EmbeddedBadge{},
	}
	for _, b := range next.Badges {
		if !cur.HasBadgeNamed(b.Name) {
			update.NewBadges = append(update.NewBadges, b)
		}
	}
	return update, nil
}
