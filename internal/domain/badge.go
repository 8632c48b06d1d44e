// Package domain holds the typerace data model: badge definitions, unlock
// criteria, performance samples and the per-user records built from them.
package domain

import (
	"encoding/json"
	"time"
)

// ─── Badge Catalog Types ────────────────────────────────────────────────────

// Category groups badges by theme.
type Category string

const (
	CategorySpeed       Category = "speed"
	CategoryAccuracy    Category = "accuracy"
	CategoryConsistency Category = "consistency"
	CategoryMilestone   Category = "milestone"
)

// Rarity is a badge's display tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IconKind tells the presentation layer how to read BadgeDefinition.Icon.
type IconKind string

const (
	IconGlyph IconKind = "string" // Icon is inline text (usually an emoji)
	IconURL   IconKind = "url"    // Icon is an image reference
)

// BadgeDefinition describes one achievable badge. Definitions live only in
// the catalog; per-user state references them by BadgeID.
type BadgeDefinition struct {
	BadgeID     string
	Name        string
	Description string
	IconKind    IconKind
	Icon        string // empty renders the default trophy
	Category    Category
	Criterion   Criterion
	Rarity      Rarity
}

// badgeJSON is the wire shape shared with the web client.
type badgeJSON struct {
	BadgeID     string        `json:"badgeId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	IconType    IconKind      `json:"iconType"`
	Icon        *string       `json:"icon"`
	Category    Category      `json:"category"`
	Criteria    CriterionSpec `json:"criteria"`
	Rarity      Rarity        `json:"rarity"`
}

// MarshalJSON flattens the criterion into its {type, condition, threshold} form.
func (b BadgeDefinition) MarshalJSON() ([]byte, error) {
	out := badgeJSON{
		BadgeID:     b.BadgeID,
		Name:        b.Name,
		Description: b.Description,
		IconType:    b.IconKind,
		Category:    b.Category,
		Rarity:      b.Rarity,
	}
	if b.Icon != "" {
		icon := b.Icon
		out.Icon = &icon
	}
	if b.Criterion != nil {
		out.Criteria = SpecOf(b.Criterion)
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire shape, rejecting unsupported criteria.
func (b *BadgeDefinition) UnmarshalJSON(data []byte) error {
	var in badgeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c, err := in.Criteria.Criterion()
	if err != nil {
		return err
	}
	*b = BadgeDefinition{
		BadgeID:     in.BadgeID,
		Name:        in.Name,
		Description: in.Description,
		IconKind:    in.IconType,
		Category:    in.Category,
		Criterion:   c,
		Rarity:      in.Rarity,
	}
	if in.Icon != nil {
		b.Icon = *in.Icon
	}
	return nil
}

// ─── Per-User Badge State ───────────────────────────────────────────────────

// UserBadgeRecord marks one badge unlocked for one user. (UserID, BadgeID)
// is unique; records are never deleted and only IsViewed ever changes.
type UserBadgeRecord struct {
	UserID     string    `json:"userId" bson:"userId"`
	BadgeID    string    `json:"badgeId" bson:"badgeId"`
	UnlockedAt time.Time `json:"unlockedAt" bson:"unlockedAt"`
	IsViewed   bool      `json:"isViewed" bson:"isViewed"`
}

// EvaluationResult is the outcome of checking one badge's criterion.
type EvaluationResult struct {
	BadgeID      string  `json:"badgeId"`
	Unlocked     bool    `json:"unlocked"`
	Progress     float64 `json:"progress"`
	CurrentValue float64 `json:"currentValue"`
	TargetValue  float64 `json:"targetValue"`
}

// AchievementReport is returned by one orchestrator pass.
type AchievementReport struct {
	NewBadges         []string           `json:"newBadges"`
	EvaluationResults []EvaluationResult `json:"evaluationResults"`
	TotalEvaluated    int                `json:"totalEvaluated"`
}

// BadgeProgress is one entry of a user's progress report.
type BadgeProgress struct {
	Unlocked     bool       `json:"unlocked"`
	Progress     float64    `json:"progress"`
	IsViewed     bool       `json:"isViewed,omitempty"`
	UnlockedAt   *time.Time `json:"unlockedAt,omitempty"`
	CurrentValue *float64   `json:"currentValue,omitempty"`
	TargetValue  *float64   `json:"targetValue,omitempty"`
}
