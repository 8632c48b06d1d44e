package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Evaluation errors
	ErrUnsupportedCriterion = errors.New("unsupported criterion")
	ErrUserNotFound         = errors.New("user not found")

	// Persistence errors
	ErrDuplicateBadge     = errors.New("badge already unlocked")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrUnknownStoreDriver = errors.New("unknown store driver")

	// Request errors
	ErrInvalidSample     = errors.New("invalid performance sample")
	ErrInvalidUser       = errors.New("invalid user profile")
	ErrNoBadgesSpecified = errors.New("no badge IDs provided")
	ErrUnknownBadge      = errors.New("unknown badge")
)
