// Package engagement implements the typerace achievement engine: the badge
// catalog, criterion evaluation, unlock orchestration, the streak/skill/XP
// tracker and progress reporting.
package engagement

import (
	"fmt"
	"sort"

	"github.com/t-race/typerace/internal/domain"
)

// Catalog is the immutable, ordered set of badge definitions.
type Catalog struct {
	badges []domain.BadgeDefinition
	byID   map[string]int
}

// NewCatalog validates defs and freezes them in the given display order.
func NewCatalog(defs []domain.BadgeDefinition) (*Catalog, error) {
	c := &Catalog{
		badges: make([]domain.BadgeDefinition, len(defs)),
		byID:   make(map[string]int, len(defs)),
	}
	copy(c.badges, defs)
	for i, b := range c.badges {
		if b.BadgeID == "" {
			return nil, fmt.Errorf("badge #%d has no id", i)
		}
		if _, dup := c.byID[b.BadgeID]; dup {
			return nil, fmt.Errorf("duplicate badge id %q", b.BadgeID)
		}
		if err := domain.ValidateCriterion(b.Criterion); err != nil {
			return nil, fmt.Errorf("badge %s: %w", b.BadgeID, err)
		}
		c.byID[b.BadgeID] = i
	}
	return c, nil
}

// DefaultCatalog returns the built-in badge collection.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(AllBadges())
	if err != nil {
		panic(err)
	}
	return c
}

// ListBadges returns every badge in display order. The slice is a copy.
func (c *Catalog) ListBadges() []domain.BadgeDefinition {
	out := make([]domain.BadgeDefinition, len(c.badges))
	copy(out, c.badges)
	return out
}

// Lookup finds a badge by id.
func (c *Catalog) Lookup(id string) (domain.BadgeDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.BadgeDefinition{}, false
	}
	return c.badges[i], true
}

// Len returns the number of badges.
func (c *Catalog) Len() int {
	return len(c.badges)
}

// Validate re-checks every definition. Used by the health checker.
func (c *Catalog) Validate() error {
	_, err := NewCatalog(c.badges)
	return err
}

// SpeedBadges returns the ">=" WPM badges ordered by threshold ascending.
func (c *Catalog) SpeedBadges() []domain.BadgeDefinition {
	var out []domain.BadgeDefinition
	for _, b := range c.badges {
		if w, ok := b.Criterion.(domain.WPMCriterion); ok && w.Cmp == domain.AtLeast {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Criterion.Threshold() < out[j].Criterion.Threshold()
	})
	return out
}

// ─── Badge Definitions ──────────────────────────────────────────────────────
// 19 badges: 12 speed, 2 accuracy, 4 milestone, 1 consistency.

// AllBadges returns the full badge collection in display order.
func AllBadges() []domain.BadgeDefinition {
	return []domain.BadgeDefinition{
		// ── Speed ──────────────────────────────────────────────────────
		speedBadge("warm_up_starter", "Warm-Up Starter", "🎈", 20, domain.RarityCommon),
		speedBadge("quick_learner", "Quick Learner", "🪶", 30, domain.RarityCommon),
		speedBadge("focused_fingers", "Focused Fingers", "🎯", 40, domain.RarityCommon),
		speedBadge("fast_fingers", "Fast Fingers", "🥉", 50, domain.RarityEpic),
		speedBadge("typing_enthusiast", "Typing Enthusiast", "💫", 60, domain.RarityEpic),
		speedBadge("speed_challenger", "Speed Challenger", "🚀", 70, domain.RarityEpic),
		speedBadge("speedster", "Speedster", "🥈", 80, domain.RarityRare),
		speedBadge("keyboard_ninja", "Keyboard Ninja", "🔥", 90, domain.RarityRare),
		speedBadge("lightning_hands", "Lightning Hands", "⚡", 100, domain.RarityRare),
		speedBadge("type_master", "Type Master", "🏆", 110, domain.RarityLegendary),
		speedBadge("typing_virtuoso", "Typing Virtuoso", "🧠", 120, domain.RarityLegendary),
		speedBadge("legendary_typist", "Legendary Typist", "💥", 130, domain.RarityLegendary),

		// ── Accuracy ───────────────────────────────────────────────────
		{
			BadgeID: "accuracy_expert_95", Name: "Accuracy Expert",
			Description: "Achieve 95% accuracy in a race",
			IconKind:    domain.IconGlyph, Category: domain.CategoryAccuracy,
			Criterion: domain.AccuracyCriterion{Cmp: domain.AtLeast, Target: 95},
			Rarity:    domain.RarityRare,
		},
		{
			BadgeID: "perfect_typist", Name: "Perfect Typist",
			Description: "Achieve 100% accuracy in a race",
			IconKind:    domain.IconGlyph, Category: domain.CategoryAccuracy,
			Criterion: domain.AccuracyCriterion{Cmp: domain.EqualTo, Target: 100},
			Rarity:    domain.RarityRare,
		},

		// ── Milestones ─────────────────────────────────────────────────
		// time_played thresholds are minutes.
		{
			BadgeID: "warm_up", Name: "Warm Up",
			Description: "Play over 1 minute",
			IconKind:    domain.IconGlyph, Category: domain.CategoryMilestone,
			Criterion: domain.TimePlayedCriterion{Cmp: domain.AtLeast, Minutes: 1},
			Rarity:    domain.RarityCommon,
		},
		{
			BadgeID: "high_roller", Name: "High Roller",
			Description: "Play over 60 minutes",
			IconKind:    domain.IconGlyph, Category: domain.CategoryMilestone,
			Criterion: domain.TimePlayedCriterion{Cmp: domain.AtLeast, Minutes: 60},
			Rarity:    domain.RarityLegendary,
		},
		{
			BadgeID: "first_steps", Name: "First Steps",
			Description: "Complete your first typing race",
			IconKind:    domain.IconGlyph, Category: domain.CategoryMilestone,
			Criterion: domain.GamesPlayedCriterion{Cmp: domain.AtLeast, Games: 1},
			Rarity:    domain.RarityCommon,
		},
		{
			BadgeID: "marathon_runner", Name: "Marathon Runner",
			Description: "Complete 100 typing races",
			IconKind:    domain.IconGlyph, Category: domain.CategoryMilestone,
			Criterion: domain.GamesPlayedCriterion{Cmp: domain.AtLeast, Games: 100},
			Rarity:    domain.RarityRare,
		},

		// ── Consistency ────────────────────────────────────────────────
		{
			BadgeID: "aim_high", Name: "Aim High",
			Description: "Perform well 10 times in a row",
			IconKind:    domain.IconGlyph, Category: domain.CategoryConsistency,
			Criterion: domain.StreakCriterion{Cmp: domain.Consecutive, Length: 10},
			Rarity:    domain.RarityLegendary,
		},
	}
}

func speedBadge(id, name, icon string, wpm float64, rarity domain.Rarity) domain.BadgeDefinition {
	return domain.BadgeDefinition{
		BadgeID:     id,
		Name:        name,
		Description: fmt.Sprintf("Achieve %g+ WPM in a single race", wpm),
		IconKind:    domain.IconGlyph,
		Icon:        icon,
		Category:    domain.CategorySpeed,
		Criterion:   domain.WPMCriterion{Cmp: domain.AtLeast, Target: wpm},
		Rarity:      rarity,
	}
}
