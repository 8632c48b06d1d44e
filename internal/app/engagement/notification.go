package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/t-race/typerace/internal/domain"
)

// Celebration is an unlocked badge whose toast has not been shown yet.
type Celebration struct {
	Badge      domain.BadgeDefinition `json:"badge"`
	UnlockedAt time.Time              `json:"unlockedAt"`
}

// NotificationService surfaces unviewed unlocks to the presentation layer.
// A badge stays pending until it is marked viewed.
type NotificationService struct {
	badges  domain.BadgeStore
	catalog *Catalog
}

// NewNotificationService creates a notification service.
func NewNotificationService(badges domain.BadgeStore, catalog *Catalog) *NotificationService {
	return &NotificationService{badges: badges, catalog: catalog}
}

// Pending returns the user's unviewed unlocks, oldest first. Records whose
// badge is no longer in the catalog are skipped.
func (n *NotificationService) Pending(ctx context.Context, userID string) ([]Celebration, error) {
	records, err := n.badges.UnlockedBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked badges: %w", err)
	}

	out := []Celebration{}
	for _, r := range records {
		if r.IsViewed {
			continue
		}
		def, ok := n.catalog.Lookup(r.BadgeID)
		if !ok {
			continue
		}
		out = append(out, Celebration{Badge: def, UnlockedAt: r.UnlockedAt})
	}
	return out, nil
}

// Acknowledge marks every pending celebration viewed and returns how many
// records flipped.
func (n *NotificationService) Acknowledge(ctx context.Context, userID string) (int64, error) {
	pending, err := n.Pending(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	ids := make([]string, len(pending))
	for i, c := range pending {
		ids[i] = c.Badge.BadgeID
	}
	return n.badges.MarkBadgesViewed(ctx, userID, ids)
}
