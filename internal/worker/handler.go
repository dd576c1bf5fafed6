package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"chirper/internal/cache"
	"chirper/internal/id"
	"chirper/internal/metrics"
	"chirper/internal/model"
	"chirper/internal/queue"
)

// FollowQuery is the slice of the follow store the materializer reads.
type FollowQuery interface {
	GetAllFollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
}

// PostQuery is the slice of the post store the materializer reads.
type PostQuery interface {
	GetLatestByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error)
}

// Handler materializes timeline events into the per-reader caches. All
// operations are idempotent: sorted-set adds and removes converge to the same
// state under redelivery, so at-least-once delivery is safe.
type Handler struct {
	cache   cache.TimelineCache
	follows FollowQuery
	posts   PostQuery
	metrics *metrics.Registry

	celebrityThreshold int
	maxTimelineSize    int
}

func NewHandler(tc cache.TimelineCache, follows FollowQuery, posts PostQuery, reg *metrics.Registry, celebrityThreshold, maxTimelineSize int) *Handler {
	return &Handler{
		cache:              tc,
		follows:            follows,
		posts:              posts,
		metrics:            reg,
		celebrityThreshold: celebrityThreshold,
		maxTimelineSize:    maxTimelineSize,
	}
}

// HandleMessage routes one log message to the matching materialization.
// Unknown event types are reported as errors; the caller acks regardless.
func (h *Handler) HandleMessage(ctx context.Context, msg queue.Message) error {
	h.metrics.IncEventsConsumed()

	switch msg.Type {
	case model.EventPostCreated:
		var event model.PostCreatedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal %s: %w", msg.Type, err)
		}
		return h.handlePostCreated(ctx, event)

	case model.EventUserFollowed:
		var event model.FollowEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal %s: %w", msg.Type, err)
		}
		return h.handleUserFollowed(ctx, event)

	case model.EventUserUnfollowed:
		var event model.FollowEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("unmarshal %s: %w", msg.Type, err)
		}
		return h.handleUserUnfollowed(ctx, event)

	default:
		return fmt.Errorf("unknown event type: %s", msg.Type)
	}
}

// handlePostCreated fans the post out to every follower's timeline. Authors
// over the celebrity threshold are skipped entirely; their posts are merged
// in at read time instead.
func (h *Handler) handlePostCreated(ctx context.Context, event model.PostCreatedEvent) error {
	authorID := event.UserID.Value

	followerCount, err := h.follows.CountFollowers(ctx, authorID)
	if err != nil {
		return fmt.Errorf("count followers of %s: %w", authorID, err)
	}
	if followerCount > int64(h.celebrityThreshold) {
		log.Printf("[TimelineHandler] PostCreated skipped fan-out: author=%s followers=%d threshold=%d",
			authorID, followerCount, h.celebrityThreshold)
		return nil
	}

	followerIDs, err := h.follows.GetAllFollowerIDs(ctx, authorID)
	if err != nil {
		return fmt.Errorf("get followers of %s: %w", authorID, err)
	}
	if len(followerIDs) == 0 {
		return nil
	}

	score := id.Timestamp(event.TweetID)
	failed := 0
	for _, followerID := range followerIDs {
		if err := h.cache.Add(ctx, followerID, event.TweetID, score); err != nil {
			failed++
			log.Printf("[TimelineHandler] fan-out add FAILED: reader=%s post=%s err=%v",
				followerID, event.TweetID, err)
		}
	}

	log.Printf("[TimelineHandler] PostCreated OK: post=%s author=%s fanout=%d failed=%d",
		event.TweetID, authorID, len(followerIDs)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("fan-out incomplete: %d of %d adds failed", failed, len(followerIDs))
	}
	return nil
}

// handleUserFollowed backfills the follower's timeline with the followee's
// recent posts.
func (h *Handler) handleUserFollowed(ctx context.Context, event model.FollowEvent) error {
	followerID := event.FollowerID.Value
	followeeID := event.FolloweeID.Value

	posts, err := h.posts.GetLatestByAuthor(ctx, followeeID, h.maxTimelineSize)
	if err != nil {
		return fmt.Errorf("load posts of %s for backfill: %w", followeeID, err)
	}
	if len(posts) == 0 {
		return nil
	}

	entries := make([]cache.PostScore, len(posts))
	for i, p := range posts {
		entries[i] = cache.PostScore{PostID: p.ID, Score: id.Timestamp(p.ID)}
	}
	if err := h.cache.AddMany(ctx, followerID, entries); err != nil {
		return fmt.Errorf("backfill timeline of %s: %w", followerID, err)
	}

	log.Printf("[TimelineHandler] UserFollowed OK: follower=%s followee=%s backfilled=%d",
		followerID, followeeID, len(entries))
	return nil
}

// handleUserUnfollowed purges the ex-followee's posts from the follower's
// timeline.
func (h *Handler) handleUserUnfollowed(ctx context.Context, event model.FollowEvent) error {
	followerID := event.FollowerID.Value
	followeeID := event.FolloweeID.Value

	posts, err := h.posts.GetLatestByAuthor(ctx, followeeID, h.maxTimelineSize)
	if err != nil {
		return fmt.Errorf("load posts of %s for purge: %w", followeeID, err)
	}
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	if err := h.cache.RemoveMany(ctx, followerID, postIDs); err != nil {
		return fmt.Errorf("purge timeline of %s: %w", followerID, err)
	}

	log.Printf("[TimelineHandler] UserUnfollowed OK: follower=%s followee=%s purged=%d",
		followerID, followeeID, len(postIDs))
	return nil
}
