package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/t-race/typerace/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

const userColumns = `user_id, email, display_name, photo_url, game_name, highest_score,
	total_games_played, total_time_played, last_login, created_at, updated_at`

// GetUser returns the profile or nil, nil when it does not exist.
func (d *DB) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	return scanUser(row)
}

// UpsertUser creates the profile, or refreshes display fields and lastLogin.
// Lifetime counters and createdAt are never overwritten.
func (d *DB) UpsertUser(ctx context.Context, u domain.User) (*domain.User, error) {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, display_name, photo_url, game_name, last_login, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			email=excluded.email,
			display_name=excluded.display_name,
			photo_url=excluded.photo_url,
			last_login=excluded.last_login,
			updated_at=excluded.updated_at`,
		u.UserID, u.Email, u.DisplayName, u.PhotoURL, u.GameName,
		millis(u.LastLogin), millis(u.CreatedAt), millis(u.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return d.GetUser(ctx, u.UserID)
}

// RecordGame folds one finished game into the lifetime counters.
func (d *DB) RecordGame(ctx context.Context, userID string, score, gameSeconds float64) (*domain.User, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE users SET
			total_games_played = total_games_played + 1,
			total_time_played  = total_time_played + ?,
			highest_score      = MAX(highest_score, ?),
			updated_at         = ?
		 WHERE user_id = ?`,
		gameSeconds, score, millis(time.Now()), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("record game: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, domain.ErrUserNotFound
	}
	return d.GetUser(ctx, userID)
}

// Leaderboard returns a page of users by highest score plus the user count.
func (d *DB) Leaderboard(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY highest_score DESC, created_at ASC
		 LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var lastLogin, createdAt, updatedAt int64

	err := s.Scan(&u.UserID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.GameName,
		&u.HighestScore, &u.TotalGamesPlayed, &u.TotalTimePlayed,
		&lastLogin, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	u.LastLogin = fromMillis(lastLogin)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}
