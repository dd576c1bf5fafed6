package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chirper/internal/database"
	"chirper/internal/model"
)

type followRepository struct {
	cluster *database.Cluster
}

func NewFollowRepository(cluster *database.Cluster) FollowRepository {
	return &followRepository{cluster: cluster}
}

func (r *followRepository) Create(ctx context.Context, tx *sqlx.Tx, follow *model.Follow) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`, follow.FollowerID, follow.FolloweeID, follow.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create follow: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, tx *sqlx.Tx, followerID, followeeID uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.cluster.For(followerID).GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)
	`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("check follow exists: %w", err)
	}
	return exists, nil
}

func (r *followRepository) GetFollowing(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error) {
	var rows []model.FollowedUser
	var err error

	if cursor == nil {
		err = r.cluster.For(userID).SelectContext(ctx, &rows, `
			SELECT u.id, u.created_at AS user_created_at, f.created_at AS followed_at
			FROM follows f
			JOIN users u ON u.id = f.followee_id
			WHERE f.follower_id = $1
			ORDER BY f.created_at DESC
			LIMIT $2
		`, userID, limit)
	} else {
		err = r.cluster.For(userID).SelectContext(ctx, &rows, `
			SELECT u.id, u.created_at AS user_created_at, f.created_at AS followed_at
			FROM follows f
			JOIN users u ON u.id = f.followee_id
			WHERE f.follower_id = $1 AND f.created_at < $2
			ORDER BY f.created_at DESC
			LIMIT $3
		`, userID, *cursor, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get following: %w", err)
	}
	return rows, nil
}

func (r *followRepository) GetFollowers(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error) {
	var rows []model.FollowedUser
	var err error

	if cursor == nil {
		err = r.cluster.For(userID).SelectContext(ctx, &rows, `
			SELECT u.id, u.created_at AS user_created_at, f.created_at AS followed_at
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followee_id = $1
			ORDER BY f.created_at DESC
			LIMIT $2
		`, userID, limit)
	} else {
		err = r.cluster.For(userID).SelectContext(ctx, &rows, `
			SELECT u.id, u.created_at AS user_created_at, f.created_at AS followed_at
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followee_id = $1 AND f.created_at < $2
			ORDER BY f.created_at DESC
			LIMIT $3
		`, userID, *cursor, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get followers: %w", err)
	}
	return rows, nil
}

func (r *followRepository) GetAllFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.cluster.For(userID).SelectContext(ctx, &ids, `
		SELECT follower_id FROM follows WHERE followee_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("get follower ids: %w", err)
	}
	return ids, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.cluster.For(userID).GetContext(ctx, &count, `
		SELECT COUNT(*) FROM follows WHERE followee_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}

func (r *followRepository) GetFollowedCelebrities(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.cluster.For(userID).SelectContext(ctx, &ids, `
		SELECT f.followee_id
		FROM follows f
		WHERE f.follower_id = $1
		  AND (SELECT COUNT(*) FROM follows f2 WHERE f2.followee_id = f.followee_id) > $2
	`, userID, threshold)
	if err != nil {
		return nil, fmt.Errorf("get followed celebrities: %w", err)
	}
	return ids, nil
}

func (r *followRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.cluster.Default().GetContext(ctx, &count, `SELECT COUNT(*) FROM follows`); err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return count, nil
}

func (r *followRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.cluster.Default().ExecContext(ctx, `DELETE FROM follows`)
	if err != nil {
		return 0, fmt.Errorf("delete follows: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
