package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"chirper/internal/config"
	"chirper/internal/database"
	"chirper/internal/id"
	"chirper/internal/metrics"
	"chirper/internal/model"
	"chirper/internal/repository"
)

// PostService creates posts and serves author histories. Creation writes the
// post row and its outbox event in one transaction, so a committed post is
// guaranteed to reach the timeline pipeline.
type PostService struct {
	cluster *database.Cluster
	posts   repository.PostRepository
	outbox  repository.OutboxRepository
	idgen   id.Generator
	metrics *metrics.Registry

	defaultPageSize int
	maxPageSize     int
}

func NewPostService(
	cluster *database.Cluster,
	posts repository.PostRepository,
	outbox repository.OutboxRepository,
	idgen id.Generator,
	reg *metrics.Registry,
	cfg config.TimelineConfig,
) *PostService {
	return &PostService{
		cluster:         cluster,
		posts:           posts,
		outbox:          outbox,
		idgen:           idgen,
		metrics:         reg,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
	}
}

// Create validates content, then commits the post and its POST_CREATED
// outbox record atomically.
func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, content, requestID string) (*model.Post, error) {
	post, err := model.NewPost(s.idgen.Generate(), authorID, content)
	if err != nil {
		return nil, err
	}

	rec, err := model.NewPostCreatedRecord(s.idgen.Generate(), post, requestID)
	if err != nil {
		return nil, err
	}

	tx, err := s.cluster.For(authorID).BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create post tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.posts.Save(ctx, tx, post); err != nil {
		return nil, err
	}
	if err := s.outbox.Append(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create post tx: %w", err)
	}

	s.metrics.IncPostsCreated()
	log.Printf("[PostService] Create OK: post=%s author=%s requestId=%s", post.ID, authorID, requestID)
	return post, nil
}

// GetUserPosts pages an author's history newest-first with an opaque cursor.
func (s *PostService) GetUserPosts(ctx context.Context, authorID uuid.UUID, cursor string, limit int) (*model.Page[model.Post], error) {
	limit = clampLimit(limit, s.defaultPageSize, s.maxPageSize)
	cursorID := decodePostCursor(cursor)

	posts, err := s.posts.GetByAuthor(ctx, authorID, cursorID, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	var nextCursor *string
	if hasMore && len(posts) > 0 {
		c := encodePostCursor(posts[len(posts)-1].ID)
		nextCursor = &c
	}
	return model.NewPage(posts, nextCursor, hasMore), nil
}
