package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chirper/internal/database"
	"chirper/internal/model"
)

var ErrPostNotFound = errors.New("post not found")

type postRepository struct {
	cluster *database.Cluster
}

func NewPostRepository(cluster *database.Cluster) PostRepository {
	return &postRepository{cluster: cluster}
}

func (r *postRepository) Save(ctx context.Context, tx *sqlx.Tx, post *model.Post) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tweets (id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, post.ID, post.UserID, post.Content, post.CreatedAt)
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	err := r.cluster.Default().GetContext(ctx, &post, `
		SELECT id, user_id, content, created_at FROM tweets WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by id: %w", err)
	}
	return &post, nil
}

// GetByAuthor pages an author's history newest-first. The cursor is an
// exclusive post id: id < cursor, relying on UUIDv7 byte order.
func (r *postRepository) GetByAuthor(ctx context.Context, authorID uuid.UUID, cursorID *uuid.UUID, limit int) ([]model.Post, error) {
	var posts []model.Post
	var err error

	if cursorID == nil {
		err = r.cluster.For(authorID).SelectContext(ctx, &posts, `
			SELECT id, user_id, content, created_at
			FROM tweets
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2
		`, authorID, limit)
	} else {
		err = r.cluster.For(authorID).SelectContext(ctx, &posts, `
			SELECT id, user_id, content, created_at
			FROM tweets
			WHERE user_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3
		`, authorID, *cursorID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get posts by author: %w", err)
	}
	return posts, nil
}

func (r *postRepository) GetLatestByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error) {
	return r.GetByAuthor(ctx, authorID, nil, limit)
}

func (r *postRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	var posts []model.Post
	err := r.cluster.Default().SelectContext(ctx, &posts, `
		SELECT id, user_id, content, created_at
		FROM tweets
		WHERE id = ANY($1)
	`, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.cluster.Default().GetContext(ctx, &count, `SELECT COUNT(*) FROM tweets`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (r *postRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.cluster.Default().ExecContext(ctx, `DELETE FROM tweets`)
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
