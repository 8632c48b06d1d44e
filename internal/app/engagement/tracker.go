package engagement

import (
	"math"
	"time"

	"github.com/t-race/typerace/internal/domain"
)

// SkillTiers maps minimum WPM to a skill title, ascending.
var SkillTiers = []domain.SkillTier{
	{MinWPM: 0, Title: "🐢 Beginner"},
	{MinWPM: 21, Title: "✍️ Learner"},
	{MinWPM: 36, Title: "🎯 Skilled"},
	{MinWPM: 51, Title: "⚙️ Experienced"},
	{MinWPM: 66, Title: "⚡ Fast"},
	{MinWPM: 81, Title: "🔥 Advanced"},
	{MinWPM: 96, Title: "🧠 Expert"},
	{MinWPM: 111, Title: "👑 Pro / Legendary"},
}

// SkillFor returns the title of the highest tier whose minimum is <= wpm.
func SkillFor(wpm float64) string {
	title := SkillTiers[0].Title
	best := math.Inf(-1)
	for _, t := range SkillTiers {
		if t.MinWPM <= wpm && t.MinWPM > best {
			best = t.MinWPM
			title = t.Title
		}
	}
	return title
}

// Tracker folds race results into a UserStat.
type Tracker struct {
	speed []domain.BadgeDefinition
}

// NewTracker builds a tracker awarding the catalog's speed badges.
func NewTracker(catalog *Catalog) *Tracker {
	return &Tracker{speed: catalog.SpeedBadges()}
}

// LegacyBadgeName is the embedded-list name of a speed badge.
func LegacyBadgeName(b domain.BadgeDefinition) string {
	if b.Icon == "" {
		return b.Name
	}
	return b.Icon + " " + b.Name
}

// ProcessResult folds one race at wpm, finished at now, into cur and returns
// the new record. cur is not modified. Calendar days are taken in now's
// location.
func (t *Tracker) ProcessResult(cur domain.UserStat, wpm float64, now time.Time) domain.UserStat {
	next := cur
	next.Badges = append([]domain.EmbeddedBadge(nil), cur.Badges...)

	next.RacesCompleted = cur.RacesCompleted + 1

	switch {
	case !cur.LastTestDate.IsZero() && isNextDay(cur.LastTestDate, now) && wpm >= cur.LastTestWPM:
		next.CurrentStreak = cur.CurrentStreak + 1
	default:
		next.CurrentStreak = 1
	}
	next.LongestStreak = max(cur.LongestStreak, next.CurrentStreak)

	next.LastTestWPM = wpm
	next.LastTestDate = now

	// Matched by name, so two badges sharing a display name count as one.
	for _, b := range t.speed {
		name := LegacyBadgeName(b)
		if b.Criterion.Threshold() <= wpm && !next.HasBadgeNamed(name) {
			next.Badges = append(next.Badges, domain.EmbeddedBadge{Name: name, Icon: b.Icon, DateEarned: now})
		}
	}

	next.SkillLevel = SkillFor(wpm)
	next.XPPoints = cur.XPPoints + int64(math.Round(wpm))
	return next
}

// isNextDay reports whether now falls on the calendar day after prev.
func isNextDay(prev, now time.Time) bool {
	y1, m1, d1 := prev.In(now.Location()).AddDate(0, 0, 1).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
