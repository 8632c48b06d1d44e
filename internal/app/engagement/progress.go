package engagement

import (
	"context"
	"fmt"

	"github.com/t-race/typerace/internal/domain"
)

// ProgressService reports, for every catalog badge, whether a user holds it
// and how far along they are.
type ProgressService struct {
	store   domain.Store
	catalog *Catalog
}

// NewProgressService creates a progress reporter.
func NewProgressService(store domain.Store, catalog *Catalog) *ProgressService {
	return &ProgressService{store: store, catalog: catalog}
}

// GetProgress maps badge id to progress. Locked badges are evaluated with a
// zero sample against stored history, so session criteria (wpm, accuracy)
// read 0% while counter criteria reflect lifetime totals. A user without a
// profile reads as all-zero counters.
func (p *ProgressService) GetProgress(ctx context.Context, userID string) (map[string]domain.BadgeProgress, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing userId: %w", domain.ErrInvalidUser)
	}

	unlocked, err := p.store.UnlockedBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked badges: %w", err)
	}
	owned := make(map[string]domain.UserBadgeRecord, len(unlocked))
	for _, r := range unlocked {
		owned[r.BadgeID] = r
	}

	var locked []domain.BadgeDefinition
	for _, b := range p.catalog.badges {
		if _, ok := owned[b.BadgeID]; !ok {
			locked = append(locked, b)
		}
	}
	hist, err := loadHistory(ctx, p.store, userID, locked, false, "")
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.BadgeProgress, p.catalog.Len())
	for _, b := range p.catalog.badges {
		if r, ok := owned[b.BadgeID]; ok {
			at := r.UnlockedAt
			out[b.BadgeID] = domain.BadgeProgress{
				Unlocked:   true,
				Progress:   100,
				IsViewed:   r.IsViewed,
				UnlockedAt: &at,
			}
			continue
		}

		res, err := EvaluateBadge(b, domain.PerformanceSample{}, hist)
		if err != nil {
			return nil, err
		}
		current, target := res.CurrentValue, res.TargetValue
		out[b.BadgeID] = domain.BadgeProgress{
			Progress:     res.Progress,
			CurrentValue: &current,
			TargetValue:  &target,
		}
	}
	return out, nil
}
