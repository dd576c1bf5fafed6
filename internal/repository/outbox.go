package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chirper/internal/database"
	"chirper/internal/model"
)

type outboxRepository struct {
	cluster *database.Cluster
}

func NewOutboxRepository(cluster *database.Cluster) OutboxRepository {
	return &outboxRepository{cluster: cluster}
}

func (r *outboxRepository) Append(ctx context.Context, tx *sqlx.Tx, rec *model.OutboxRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox (id, event_type, aggregate_id, payload, request_id, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`, rec.ID, rec.EventType, rec.AggregateID, string(rec.Payload), rec.RequestID, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("append outbox record: %w", err)
	}
	return nil
}

// Drain claims a batch with SKIP LOCKED so concurrent dispatchers never
// double-publish. The publish callback runs inside the claiming transaction;
// a crash after publish but before commit leaves the rows unprocessed, so
// the batch is republished on the next tick and consumers must tolerate
// duplicates.
func (r *outboxRepository) Drain(ctx context.Context, limit int, publish func(context.Context, model.OutboxRecord) error) (int, error) {
	tx, err := r.cluster.Default().BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin drain tx: %w", err)
	}
	defer tx.Rollback()

	var records []model.OutboxRecord
	err = tx.SelectContext(ctx, &records, `
		SELECT id, event_type, aggregate_id, payload, request_id, created_at, processed_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("claim outbox batch: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		if err := publish(ctx, rec); err != nil {
			return 0, fmt.Errorf("publish outbox record %s: %w", rec.ID, err)
		}
		ids[i] = rec.ID.String()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE outbox SET processed_at = NOW() WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("mark outbox processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit drain tx: %w", err)
	}
	return len(records), nil
}

func (r *outboxRepository) CompactProcessedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	result, err := r.cluster.Default().ExecContext(ctx, `
		DELETE FROM outbox WHERE processed_at IS NOT NULL AND processed_at < $1
	`, threshold)
	if err != nil {
		return 0, fmt.Errorf("compact outbox: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *outboxRepository) CountUnprocessed(ctx context.Context) (int64, error) {
	var count int64
	err := r.cluster.Default().GetContext(ctx, &count, `
		SELECT COUNT(*) FROM outbox WHERE processed_at IS NULL
	`)
	if err != nil {
		return 0, fmt.Errorf("count unprocessed outbox: %w", err)
	}
	return count, nil
}

func (r *outboxRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.cluster.Default().ExecContext(ctx, `DELETE FROM outbox`)
	if err != nil {
		return 0, fmt.Errorf("delete outbox: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
