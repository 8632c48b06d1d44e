package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/t-race/typerace/internal/domain"
)

// ─── User Badges ────────────────────────────────────────────────────────────

// UnlockedBadges returns the user's unlocked badges, oldest unlock first.
func (d *DB) UnlockedBadges(ctx context.Context, userID string) ([]domain.UserBadgeRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT user_id, badge_id, unlocked_at, is_viewed FROM user_badges
		 WHERE user_id = ? ORDER BY unlocked_at ASC, badge_id ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.UserBadgeRecord
	for rows.Next() {
		var r domain.UserBadgeRecord
		var unlockedAt int64
		if err := rows.Scan(&r.UserID, &r.BadgeID, &unlockedAt, &r.IsViewed); err != nil {
			return nil, err
		}
		r.UnlockedAt = fromMillis(unlockedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertUserBadges inserts every record in one transaction and returns the
// badge ids written. Rows that already exist are ignored and reported
// through ErrDuplicateBadge.
func (d *DB) InsertUserBadges(ctx context.Context, records []domain.UserBadgeRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO user_badges (user_id, badge_id, unlocked_at, is_viewed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := make([]string, 0, len(records))
	for _, r := range records {
		result, err := stmt.ExecContext(ctx, r.UserID, r.BadgeID, millis(r.UnlockedAt), r.IsViewed)
		if err != nil {
			return nil, fmt.Errorf("insert %s/%s: %w", r.UserID, r.BadgeID, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted = append(inserted, r.BadgeID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if dup := len(records) - len(inserted); dup > 0 {
		return inserted, fmt.Errorf("%d of %d badge records: %w", dup, len(records), domain.ErrDuplicateBadge)
	}
	return inserted, nil
}

// MarkBadgesViewed flips is_viewed for the listed badges still unviewed.
func (d *DB) MarkBadgesViewed(ctx context.Context, userID string, badgeIDs []string) (int64, error) {
	if len(badgeIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(badgeIDs)), ",")
	args := make([]any, 0, len(badgeIDs)+1)
	args = append(args, userID)
	for _, id := range badgeIDs {
		args = append(args, id)
	}

	result, err := d.db.ExecContext(ctx,
		`UPDATE user_badges SET is_viewed = 1
		 WHERE user_id = ? AND is_viewed = 0 AND badge_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("mark viewed: %w", err)
	}
	return result.RowsAffected()
}
