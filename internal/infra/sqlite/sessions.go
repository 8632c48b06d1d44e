package sqlite

import (
	"context"
	"fmt"

	"github.com/t-race/typerace/internal/domain"
)

// ─── Typing Sessions ────────────────────────────────────────────────────────

// InsertTypingStat appends a session to the user's history.
func (d *DB) InsertTypingStat(ctx context.Context, s domain.TypingStat) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO typing_stats (id, user_id, wpm, accuracy, time_played, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.WPM, s.Accuracy, s.TimePlayed, millis(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert typing stat: %w", err)
	}
	return nil
}

// RecentTypingStats returns at most limit sessions, newest first.
func (d *DB) RecentTypingStats(ctx context.Context, userID string, limit int) ([]domain.TypingStat, error) {
	return d.queryTypingStats(ctx,
		`SELECT id, user_id, wpm, accuracy, time_played, created_at FROM typing_stats
		 WHERE user_id = ? ORDER BY created_at DESC, seq DESC LIMIT ?`, userID, limit)
}

// TypingStats returns the whole retained history, oldest first.
func (d *DB) TypingStats(ctx context.Context, userID string) ([]domain.TypingStat, error) {
	return d.queryTypingStats(ctx,
		`SELECT id, user_id, wpm, accuracy, time_played, created_at FROM typing_stats
		 WHERE user_id = ? ORDER BY created_at ASC, seq ASC`, userID)
}

// TrimTypingStats keeps the newest keep sessions and deletes the rest.
func (d *DB) TrimTypingStats(ctx context.Context, userID string, keep int) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM typing_stats WHERE user_id = ? AND seq NOT IN (
			SELECT seq FROM typing_stats WHERE user_id = ?
			ORDER BY created_at DESC, seq DESC LIMIT ?
		 )`, userID, userID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("trim typing stats: %w", err)
	}
	return result.RowsAffected()
}

func (d *DB) queryTypingStats(ctx context.Context, query string, args ...any) ([]domain.TypingStat, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.TypingStat
	for rows.Next() {
		var s domain.TypingStat
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.WPM, &s.Accuracy, &s.TimePlayed, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt = fromMillis(createdAt)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
