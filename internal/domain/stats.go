package domain

import (
	"fmt"
	"time"
)

// ─── Sessions ───────────────────────────────────────────────────────────────

// PerformanceSample is the result of one completed race or practice session.
type PerformanceSample struct {
	WPM        float64 `json:"wpm"`
	Accuracy   float64 `json:"accuracy"`   // percent, 0-100
	TimePlayed float64 `json:"timePlayed"` // seconds
}

// Validate rejects negative values and accuracy above 100.
func (s PerformanceSample) Validate() error {
	switch {
	case s.WPM < 0:
		return fmt.Errorf("wpm %v is negative: %w", s.WPM, ErrInvalidSample)
	case s.Accuracy < 0 || s.Accuracy > 100:
		return fmt.Errorf("accuracy %v outside 0-100: %w", s.Accuracy, ErrInvalidSample)
	case s.TimePlayed < 0:
		return fmt.Errorf("timePlayed %v is negative: %w", s.TimePlayed, ErrInvalidSample)
	}
	return nil
}

// TypingStat is one persisted session in a user's rolling history.
type TypingStat struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"userId" bson:"userId"`
	WPM        float64   `json:"wpm" bson:"wpm"`
	Accuracy   float64   `json:"accuracy" bson:"accuracy"`
	TimePlayed float64   `json:"timePlayed" bson:"timePlayed"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// History is the persisted context a criterion may consult. Recent is
// newest first and never contains the session being evaluated.
type History struct {
	User   *User
	Recent []TypingStat
}

// ─── Users ──────────────────────────────────────────────────────────────────

// User is a player profile with lifetime counters.
type User struct {
	UserID           string    `json:"userId" bson:"userId"`
	Email            string    `json:"email" bson:"email"`
	DisplayName      string    `json:"displayName" bson:"displayName"`
	PhotoURL         string    `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	GameName         string    `json:"gameName" bson:"gameName"`
	HighestScore     float64   `json:"highestScore" bson:"highestScore"`
	TotalGamesPlayed int64     `json:"totalGamesPlayed" bson:"totalGamesPlayed"`
	TotalTimePlayed  float64   `json:"totalTimePlayed" bson:"totalTimePlayed"` // seconds
	LastLogin        time.Time `json:"lastLogin" bson:"lastLogin"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultGameName is stamped on profiles created without one.
const DefaultGameName = "T-Race"

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           string    `json:"userId"`
	DisplayName      string    `json:"displayName"`
	HighestScore     float64   `json:"highestScore"`
	TotalGamesPlayed int64     `json:"totalGamesPlayed"`
	TotalTimePlayed  float64   `json:"totalTimePlayed"`
	JoinedAt         time.Time `json:"joinedAt"`
}

// Pagination describes the window a leaderboard page covers.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// LeaderboardPage is a ranked slice of users ordered by highest score.
type LeaderboardPage struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Pagination  Pagination         `json:"pagination"`
}

// ─── Aggregate Stats ────────────────────────────────────────────────────────

// EmbeddedBadge is an entry of the badge list folded into UserStat.
type EmbeddedBadge struct {
	Name       string    `json:"name" bson:"name"`
	Icon       string    `json:"icon" bson:"icon"`
	DateEarned time.Time `json:"dateEarned" bson:"dateEarned"`
}

// UserStat is the rolled-up per-user record maintained by the tracker.
// LongestStreak >= CurrentStreak always holds.
type UserStat struct {
	UserID         string          `json:"userId" bson:"userId"`
	CurrentStreak  int             `json:"currentStreak" bson:"currentStreak"`
	LongestStreak  int             `json:"longestStreak" bson:"longestStreak"`
	RacesCompleted int64           `json:"racesCompleted" bson:"racesCompleted"`
	LastTestWPM    float64         `json:"lastTestWPM" bson:"lastTestWPM"`
	LastTestDate   time.Time       `json:"lastTestDate" bson:"lastTestDate"` // zero before the first race
	SkillLevel     string          `json:"skillLevel" bson:"skillLevel"`
	XPPoints       int64           `json:"xpPoints" bson:"xpPoints"`
	Badges         []EmbeddedBadge `json:"badges" bson:"badges"`
}

// HasBadgeNamed reports whether the embedded list already holds name.
func (s UserStat) HasBadgeNamed(name string) bool {
	for _, b := range s.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}

// SkillTier maps a minimum WPM to a skill title.
type SkillTier struct {
	MinWPM float64 `json:"minWpm"`
	Title  string  `json:"title"`
}
