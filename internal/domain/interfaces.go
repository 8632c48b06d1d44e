package domain

import "context"

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// UserStore persists player profiles and their lifetime counters.
type UserStore interface {
	// GetUser returns nil, nil when the user does not exist.
	GetUser(ctx context.Context, userID string) (*User, error)

	// UpsertUser creates the profile or refreshes its display fields and lastLogin.
	UpsertUser(ctx context.Context, u User) (*User, error)

	// RecordGame bumps totalGamesPlayed by one, adds gameSeconds to
	// totalTimePlayed and raises highestScore to score if higher.
	// Returns ErrUserNotFound when the profile is missing.
	RecordGame(ctx context.Context, userID string, score, gameSeconds float64) (*User, error)

	// Leaderboard returns users ordered by highestScore descending plus the total user count.
	Leaderboard(ctx context.Context, limit, offset int) ([]User, int64, error)
}

// SessionStore persists the rolling typing-session history.
type SessionStore interface {
	InsertTypingStat(ctx context.Context, s TypingStat) error

	// RecentTypingStats returns at most limit sessions, newest first.
	RecentTypingStats(ctx context.Context, userID string, limit int) ([]TypingStat, error)

	// TypingStats returns every retained session, oldest first.
	TypingStats(ctx context.Context, userID string) ([]TypingStat, error)

	// TrimTypingStats deletes the oldest sessions beyond keep and reports how many went.
	TrimTypingStats(ctx context.Context, userID string, keep int) (int64, error)
}

// BadgeStore persists unlocked badges.
type BadgeStore interface {
	UnlockedBadges(ctx context.Context, userID string) ([]UserBadgeRecord, error)

	// InsertUserBadges inserts every record it can and returns the badge ids
	// actually written. Records that already exist are skipped; in that case
	// the returned error wraps ErrDuplicateBadge.
	InsertUserBadges(ctx context.Context, records []UserBadgeRecord) (inserted []string, err error)

	// MarkBadgesViewed flips isViewed on the user's unviewed records among badgeIDs.
	MarkBadgesViewed(ctx context.Context, userID string, badgeIDs []string) (int64, error)
}

// StatStore persists the aggregate UserStat record.
type StatStore interface {
	// GetUserStat returns nil, nil when no record exists yet.
	GetUserStat(ctx context.Context, userID string) (*UserStat, error)
	UpsertUserStat(ctx context.Context, s UserStat) error

	// UpdateUserStat applies fold to the stored record (an empty one with
	// UserID set when none exists) and stores the result, atomically with
	// respect to other updates of the same user. fold may run more than once
	// and must be pure.
	UpdateUserStat(ctx context.Context, userID string, fold func(UserStat) UserStat) (before, after UserStat, err error)
}

// Store is the full persistence boundary.
type Store interface {
	UserStore
	SessionStore
	BadgeStore
	StatStore

	Ping(ctx context.Context) error
	Close() error
}
