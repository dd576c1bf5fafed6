package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chirper/internal/config"
	"chirper/internal/database"
	"chirper/internal/id"
	"chirper/internal/metrics"
	"chirper/internal/model"
	"chirper/internal/repository"
)

// FollowService maintains the follow graph. Mutations commit the graph edge
// and the matching outbox event in one transaction, the same pattern post
// creation uses.
type FollowService struct {
	cluster *database.Cluster
	follows repository.FollowRepository
	users   repository.UserRepository
	outbox  repository.OutboxRepository
	idgen   id.Generator
	metrics *metrics.Registry

	defaultPageSize int
	maxPageSize     int
}

func NewFollowService(
	cluster *database.Cluster,
	follows repository.FollowRepository,
	users repository.UserRepository,
	outbox repository.OutboxRepository,
	idgen id.Generator,
	reg *metrics.Registry,
	cfg config.TimelineConfig,
) *FollowService {
	return &FollowService{
		cluster:         cluster,
		follows:         follows,
		users:           users,
		outbox:          outbox,
		idgen:           idgen,
		metrics:         reg,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// Follow creates the edge follower -> followee. The followee is upserted
// inside the same transaction: following an id is the first time many users
// are ever seen.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uuid.UUID, requestID string) error {
	follow, err := model.NewFollow(followerID, followeeID)
	if err != nil {
		return err
	}

	exists, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrAlreadyFollowing
	}

	rec, err := model.NewFollowRecord(model.EventUserFollowed, s.idgen.Generate(), followerID, followeeID, requestID)
	if err != nil {
		return err
	}

	tx, err := s.cluster.For(followerID).BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin follow tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.UpsertTx(ctx, tx, followeeID); err != nil {
		return err
	}
	created, err := s.follows.Create(ctx, tx, follow)
	if err != nil {
		return err
	}
	if !created {
		// Lost the race with a concurrent identical follow.
		return model.ErrAlreadyFollowing
	}
	if err := s.outbox.Append(ctx, tx, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit follow tx: %w", err)
	}

	s.metrics.IncFollows()
	log.Printf("[FollowService] Follow OK: follower=%s followee=%s requestId=%s", followerID, followeeID, requestID)
	return nil
}

// Unfollow removes the edge and emits USER_UNFOLLOWED.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID, requestID string) error {
	if followerID == followeeID {
		return model.ErrSelfFollow
	}

	exists, err := s.follows.Exists(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrNotFollowing
	}

	rec, err := model.NewFollowRecord(model.EventUserUnfollowed, s.idgen.Generate(), followerID, followeeID, requestID)
	if err != nil {
		return err
	}

	tx, err := s.cluster.For(followerID).BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unfollow tx: %w", err)
	}
	defer tx.Rollback()

	deleted, err := s.follows.Delete(ctx, tx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotFollowing
	}
	if err := s.outbox.Append(ctx, tx, rec); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unfollow tx: %w", err)
	}

	s.metrics.IncUnfollows()
	log.Printf("[FollowService] Unfollow OK: follower=%s followee=%s requestId=%s", followerID, followeeID, requestID)
	return nil
}

func (s *FollowService) GetFollowing(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.Page[model.FollowedUser], error) {
	return s.page(ctx, userID, cursor, limit, s.follows.GetFollowing)
}

func (s *FollowService) GetFollowers(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.Page[model.FollowedUser], error) {
	return s.page(ctx, userID, cursor, limit, s.follows.GetFollowers)
}

type followPageFunc func(ctx context.Context, userID uuid.UUID, cursor *time.Time, limit int) ([]model.FollowedUser, error)

func (s *FollowService) page(ctx context.Context, userID uuid.UUID, cursor string, limit int, fetch followPageFunc) (*model.Page[model.FollowedUser], error) {
	limit = clampLimit(limit, s.defaultPageSize, s.maxPageSize)

	cursorTime, err := decodeTimeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
	}

	rows, err := fetch(ctx, userID, cursorTime, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	var nextCursor *string
	if hasMore && len(rows) > 0 {
		c := encodeTimeCursor(rows[len(rows)-1].FollowedAt)
		nextCursor = &c
	}
	return model.NewPage(rows, nextCursor, hasMore), nil
}
