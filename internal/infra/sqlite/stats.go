package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/t-race/typerace/internal/domain"
)

// ─── User Stats ─────────────────────────────────────────────────────────────

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetUserStat returns the aggregate record or nil, nil when none exists.
func (d *DB) GetUserStat(ctx context.Context, userID string) (*domain.UserStat, error) {
	return getUserStat(ctx, d.db, userID)
}

// UpsertUserStat replaces the user's aggregate record.
func (d *DB) UpsertUserStat(ctx context.Context, s domain.UserStat) error {
	return upsertUserStat(ctx, d.db, s)
}

// UpdateUserStat reads, folds and writes the record in one transaction.
// The pool holds a single connection, so concurrent updates queue behind it.
func (d *DB) UpdateUserStat(ctx context.Context, userID string, fold func(domain.UserStat) domain.UserStat) (domain.UserStat, domain.UserStat, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.UserStat{}, domain.UserStat{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	cur, err := getUserStat(ctx, tx, userID)
	if err != nil {
		return domain.UserStat{}, domain.UserStat{}, err
	}
	before := domain.UserStat{UserID: userID, Badges: []domain.EmbeddedBadge{}}
	if cur != nil {
		before = *cur
	}

	after := fold(before)
	after.UserID = userID
	if err := upsertUserStat(ctx, tx, after); err != nil {
		return domain.UserStat{}, domain.UserStat{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.UserStat{}, domain.UserStat{}, fmt.Errorf("commit: %w", err)
	}
	return before, after, nil
}

func getUserStat(ctx context.Context, q querier, userID string) (*domain.UserStat, error) {
	var s domain.UserStat
	var lastTestDate sql.NullInt64
	var badges string

	err := q.QueryRowContext(ctx,
		`SELECT user_id, current_streak, longest_streak, races_completed, last_test_wpm,
			last_test_date, skill_level, xp_points, badges
		 FROM user_stats WHERE user_id = ?`, userID,
	).Scan(&s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.RacesCompleted, &s.LastTestWPM,
		&lastTestDate, &s.SkillLevel, &s.XPPoints, &badges)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastTestDate.Valid {
		s.LastTestDate = fromMillis(lastTestDate.Int64)
	}
	if err := json.Unmarshal([]byte(badges), &s.Badges); err != nil {
		return nil, fmt.Errorf("decode badges for %s: %w", userID, err)
	}
	return &s, nil
}

func upsertUserStat(ctx context.Context, q querier, s domain.UserStat) error {
	badges := s.Badges
	if badges == nil {
		badges = []domain.EmbeddedBadge{}
	}
	encoded, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("encode badges: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO user_stats (user_id, current_streak, longest_streak, races_completed,
			last_test_wpm, last_test_date, skill_level, xp_points, badges)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			current_streak=excluded.current_streak,
			longest_streak=excluded.longest_streak,
			races_completed=excluded.races_completed,
			last_test_wpm=excluded.last_test_wpm,
			last_test_date=excluded.last_test_date,
			skill_level=excluded.skill_level,
			xp_points=excluded.xp_points,
			badges=excluded.badges`,
		s.UserID, s.CurrentStreak, s.LongestStreak, s.RacesCompleted,
		s.LastTestWPM, nullableMillis(s.LastTestDate), s.SkillLevel, s.XPPoints, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("upsert user stat: %w", err)
	}
	return nil
}
