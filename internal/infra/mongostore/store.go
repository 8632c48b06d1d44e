// Package mongostore implements the typerace store on MongoDB, using the
// same collections and field names as the web client's document model.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/t-race/typerace/internal/domain"
)

var _ domain.Store = (*Store)(nil)

// duplicateKeyCode is the server error code for a unique index violation.
const duplicateKeyCode = 11000

// maxStatSwaps bounds the compare-and-swap loop in UpdateUserStat.
const maxStatSwaps = 16

// Store holds the client and the four collections it works on.
type Store struct {
	client     *mongo.Client
	users      *mongo.Collection
	sessions   *mongo.Collection
	userBadges *mongo.Collection
	userStats  *mongo.Collection
}

// Open connects, pings the primary and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:     client,
		users:      db.Collection("users"),
		sessions:   db.Collection("typingstats"),
		userBadges: db.Collection("userbadges"),
		userStats:  db.Collection("userstats"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return s, nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes every collection. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.users.Database().Drop(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "highestScore", Value: -1}}}},
		{s.sessions, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.userBadges, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "badgeId", Value: 1}}, Options: unique}},
		{s.userStats, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("%s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

// ─── Users ──────────────────────────────────────────────────────────────────

// GetUser returns the profile or nil, nil when it does not exist.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	err := s.users.FindOne(ctx, bson.M{"userId": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates the profile or refreshes display fields and lastLogin.
func (s *Store) UpsertUser(ctx context.Context, u domain.User) (*domain.User, error) {
	update := bson.M{
		"$set": bson.M{
			"email":       u.Email,
			"displayName": u.DisplayName,
			"photoURL":    u.PhotoURL,
			"lastLogin":   u.LastLogin,
			"updatedAt":   u.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"gameName":         u.GameName,
			"highestScore":     0.0,
			"totalGamesPlayed": int64(0),
			"totalTimePlayed":  0.0,
			"createdAt":        u.CreatedAt,
		},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"userId": u.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, u.UserID)
}

// RecordGame folds one finished game into the lifetime counters.
func (s *Store) RecordGame(ctx context.Context, userID string, score, gameSeconds float64) (*domain.User, error) {
	update := bson.M{
		"$inc": bson.M{"totalGamesPlayed": int64(1), "totalTimePlayed": gameSeconds},
		"$max": bson.M{"highestScore": score},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u domain.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record game: %w", err)
	}
	return &u, nil
}

// Leaderboard returns a page of users by highest score plus the user count.
func (s *Store) Leaderboard(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "highestScore", Value: -1}, {Key: "createdAt", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}

	total, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ─── Typing Sessions ────────────────────────────────────────────────────────

// InsertTypingStat appends a session to the user's history.
func (s *Store) InsertTypingStat(ctx context.Context, t domain.TypingStat) error {
	if _, err := s.sessions.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert typing stat: %w", err)
	}
	return nil
}

// RecentTypingStats returns at most limit sessions, newest first.
func (s *Store) RecentTypingStats(ctx context.Context, userID string, limit int) ([]domain.TypingStat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	return s.findSessions(ctx, bson.M{"userId": userID}, opts)
}

// TypingStats returns the whole retained history, oldest first.
func (s *Store) TypingStats(ctx context.Context, userID string) ([]domain.TypingStat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.findSessions(ctx, bson.M{"userId": userID}, opts)
}

// TrimTypingStats keeps the newest keep sessions and deletes the rest.
func (s *Store) TrimTypingStats(ctx context.Context, userID string, keep int) (int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"_id": 1})
	stale, err := s.findSessions(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, len(stale))
	for i, t := range stale {
		ids[i] = t.ID
	}
	result, err := s.sessions.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("trim typing stats: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *Store) findSessions(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.TypingStat, error) {
	cursor, err := s.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var stats []domain.TypingStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// ─── User Badges ────────────────────────────────────────────────────────────

// UnlockedBadges returns the user's unlocked badges, oldest unlock first.
func (s *Store) UnlockedBadges(ctx context.Context, userID string) ([]domain.UserBadgeRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "unlockedAt", Value: 1}, {Key: "badgeId", Value: 1}})
	cursor, err := s.userBadges.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	var records []domain.UserBadgeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertUserBadges performs an unordered insert so one duplicate does not
// stop the rest. Duplicate-key failures are reported through ErrDuplicateBadge
// and left out of the returned ids.
func (s *Store) InsertUserBadges(ctx context.Context, records []domain.UserBadgeRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = r
	}

	_, err := s.userBadges.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.BadgeID
		}
		return ids, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return nil, fmt.Errorf("insert user badges: %w", err)
	}
	failed := make(map[int]bool, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return nil, fmt.Errorf("insert user badges: %w", err)
		}
		failed[we.Index] = true
	}
	ids := make([]string, 0, len(records)-len(failed))
	for i, r := range records {
		if !failed[i] {
			ids = append(ids, r.BadgeID)
		}
	}
	return ids, fmt.Errorf("%d of %d badge records: %w", len(failed), len(records), domain.ErrDuplicateBadge)
}

// MarkBadgesViewed flips isViewed for the listed badges still unviewed.
func (s *Store) MarkBadgesViewed(ctx context.Context, userID string, badgeIDs []string) (int64, error) {
	if len(badgeIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{"userId": userID, "badgeId": bson.M{"$in": badgeIDs}, "isViewed": false}
	result, err := s.userBadges.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"isViewed": true}})
	if err != nil {
		return 0, fmt.Errorf("mark viewed: %w", err)
	}
	return result.ModifiedCount, nil
}

// ─── User Stats ─────────────────────────────────────────────────────────────

// GetUserStat returns the aggregate record or nil, nil when none exists.
func (s *Store) GetUserStat(ctx context.Context, userID string) (*domain.UserStat, error) {
	var st domain.UserStat
	err := s.userStats.FindOne(ctx, bson.M{"userId": userID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// UpsertUserStat replaces the user's aggregate record.
func (s *Store) UpsertUserStat(ctx context.Context, st domain.UserStat) error {
	if st.Badges == nil {
		st.Badges = []domain.EmbeddedBadge{}
	}
	_, err := s.userStats.ReplaceOne(ctx, bson.M{"userId": st.UserID}, st, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert user stat: %w", err)
	}
	return nil
}

// UpdateUserStat folds the record with an optimistic compare-and-swap: the
// replace only matches while the counters read are still current, and a lost
// race re-reads and folds again.
func (s *Store) UpdateUserStat(ctx context.Context, userID string, fold func(domain.UserStat) domain.UserStat) (domain.UserStat, domain.UserStat, error) {
	for attempt := 0; attempt < maxStatSwaps; attempt++ {
		cur, err := s.GetUserStat(ctx, userID)
		if err != nil {
			return domain.UserStat{}, domain.UserStat{}, fmt.Errorf("get user stat: %w", err)
		}

		before := domain.UserStat{UserID: userID, Badges: []domain.EmbeddedBadge{}}
		if cur != nil {
			before = *cur
		}
		after := fold(before)
		after.UserID = userID
		if after.Badges == nil {
			after.Badges = []domain.EmbeddedBadge{}
		}

		if cur == nil {
			_, err := s.userStats.InsertOne(ctx, after)
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return domain.UserStat{}, domain.UserStat{}, fmt.Errorf("insert user stat: %w", err)
			}
			return before, after, nil
		}

		filter := bson.M{
			"userId":         userID,
			"racesCompleted": before.RacesCompleted,
			"xpPoints":       before.XPPoints,
			"lastTestDate":   before.LastTestDate,
		}
		res, err := s.userStats.ReplaceOne(ctx, filter, after)
		if err != nil {
			return domain.UserStat{}, domain.UserStat{}, fmt.Errorf("replace user stat: %w", err)
		}
		if res.MatchedCount == 1 {
			return before, after, nil
		}
	}
	return domain.UserStat{}, domain.UserStat{}, fmt.Errorf("update user stat %s: gave up after %d conflicting writes", userID, maxStatSwaps)
}
