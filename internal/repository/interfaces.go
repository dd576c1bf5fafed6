package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chirper/internal/model"
)

// UserRepository stores identity rows. Upserts are idempotent on the primary
// key.
type UserRepository interface {
	// Upsert ensures a user row exists, outside any caller transaction.
	Upsert(ctx context.Context, userID uuid.UUID) error

	// UpsertTx is Upsert inside the caller's transaction.
	UpsertTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error

	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// PostRepository stores immutable posts. Cursored listings return posts with
// id strictly below the cursor, newest first; UUIDv7 ids make byte order the
// chronological order.
type PostRepository interface {
	Save(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	GetByAuthor(ctx context.Context, authorID uuid.UUID, cursorID *uuid.UUID, limit int) ([]model.Post, error)
	GetLatestByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error)

	// GetByIDs hydrates a set of ids; order of the result is unspecified.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Post, error)

	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// FollowRepository stores the directed follow graph.
type FollowRepository interface {
	// Create inserts the relationship; returns false when it already existed.
	Create(ctx context.Context, tx *sqlx.Tx, follow *model.Follow) (bool, error)

	// Delete removes the relationship; returns false when it did not exist.
	Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID uuid.UUID) (bool, error)

	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// GetFollowing and GetFollowers page by the follow's created_at, newest
	// first, with an exclusive upper-bound cursor.
	GetFollowing(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error)
	GetFollowers(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error)

	GetAllFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)

	// GetFollowedCelebrities returns followees of userID whose follower count
	// strictly exceeds threshold.
	GetFollowedCelebrities(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error)

	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// OutboxRepository stores pending events and drains them to the log.
type OutboxRepository interface {
	// Append writes a record inside the caller's transaction so the event
	// commits or rolls back with the domain mutation.
	Append(ctx context.Context, tx *sqlx.Tx, rec *model.OutboxRecord) error

	// Drain claims up to limit unprocessed records oldest-first with
	// FOR UPDATE SKIP LOCKED, invokes publish for each, marks them processed
	// and commits, all in one transaction. A failed publish rolls the claim
	// back; the records stay unprocessed and are reclaimed next tick.
	Drain(ctx context.Context, limit int, publish func(context.Context, model.OutboxRecord) error) (int, error)

	// CompactProcessedBefore deletes processed records older than threshold.
	CompactProcessedBefore(ctx context.Context, threshold time.Time) (int64, error)

	CountUnprocessed(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
