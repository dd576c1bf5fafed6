package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chirper/internal/database"
)

type userRepository struct {
	cluster *database.Cluster
}

func NewUserRepository(cluster *database.Cluster) UserRepository {
	return &userRepository{cluster: cluster}
}

const upsertUserQuery = `
	INSERT INTO users (id, created_at)
	VALUES ($1, NOW())
	ON CONFLICT (id) DO NOTHING
`

func (r *userRepository) Upsert(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.cluster.For(userID).ExecContext(ctx, upsertUserQuery, userID); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, upsertUserQuery, userID); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.cluster.For(userID).GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.cluster.Default().GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *userRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.cluster.Default().ExecContext(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
