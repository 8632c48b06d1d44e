package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/t-race/typerace/internal/domain"
)

// DefaultLeaderboardLimit is the page size when none is given.
const DefaultLeaderboardLimit = 10

const maxLeaderboardLimit = 100

// ProfileService manages player profiles and the score leaderboard.
type ProfileService struct {
	users domain.UserStore

	// Now stamps login and creation times. Defaults to time.Now.
	Now func() time.Time
}

// NewProfileService creates a profile service.
func NewProfileService(users domain.UserStore) *ProfileService {
	return &ProfileService{users: users, Now: time.Now}
}

// Upsert creates the profile or refreshes it on login. created reports
// whether the profile is new.
func (p *ProfileService) Upsert(ctx context.Context, u domain.User) (user *domain.User, created bool, err error) {
	if u.UserID == "" {
		return nil, false, fmt.Errorf("missing userId: %w", domain.ErrInvalidUser)
	}

	existing, err := p.users.GetUser(ctx, u.UserID)
	if err != nil {
		return nil, false, err
	}

	now := p.Now()
	u.LastLogin = now
	u.UpdatedAt = now
	u.CreatedAt = now
	if u.GameName == "" {
		u.GameName = domain.DefaultGameName
	}

	user, err = p.users.UpsertUser(ctx, u)
	if err != nil {
		return nil, false, err
	}
	return user, existing == nil, nil
}

// Get returns the profile or ErrUserNotFound.
func (p *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// UpdateScore records a finished game outside the session recorder.
func (p *ProfileService) UpdateScore(ctx context.Context, userID string, score, gameSeconds float64) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing userId: %w", domain.ErrInvalidUser)
	}
	if score < 0 || gameSeconds < 0 {
		return nil, fmt.Errorf("score %v, gameTime %v: %w", score, gameSeconds, domain.ErrInvalidSample)
	}
	return p.users.RecordGame(ctx, userID, score, gameSeconds)
}

// Leaderboard returns one ranked page. limit <= 0 means the default and
// is capped at 100; a negative offset reads as 0.
func (p *ProfileService) Leaderboard(ctx context.Context, limit, offset int) (*domain.LeaderboardPage, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)
	offset = max(offset, 0)

	users, total, err := p.users.Leaderboard(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	page := &domain.LeaderboardPage{
		Leaderboard: make([]domain.LeaderboardEntry, len(users)),
		Pagination: domain.Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: int64(offset+limit) < total,
		},
	}
	for i, u := range users {
		page.Leaderboard[i] = domain.LeaderboardEntry{
			Rank:             offset + i + 1,
			UserID:           u.UserID,
			DisplayName:      u.DisplayName,
			HighestScore:     u.HighestScore,
			TotalGamesPlayed: u.TotalGamesPlayed,
			TotalTimePlayed:  u.TotalTimePlayed,
			JoinedAt:         u.CreatedAt,
		}
	}
	return page, nil
}
