package service

import (
	"bytes"
	"context"
	"log"
	"sort"

	"github.com/google/uuid"

	"chirper/internal/cache"
	"chirper/internal/config"
	"chirper/internal/id"
	"chirper/internal/metrics"
	"chirper/internal/model"
	"chirper/internal/repository"
)

// TimelineService serves the merged home timeline: the reader's materialized
// cache plus a live merge of every followed celebrity's recent posts.
// Celebrities are excluded from write-time fan-out, so their posts exist only
// in the relational store until read time.
type TimelineService struct {
	cache   cache.TimelineCache
	posts   repository.PostRepository
	follows repository.FollowRepository
	metrics *metrics.Registry

	defaultPageSize    int
	maxPageSize        int
	celebrityThreshold int
}

func NewTimelineService(
	tc cache.TimelineCache,
	posts repository.PostRepository,
	follows repository.FollowRepository,
	reg *metrics.Registry,
	cfg config.TimelineConfig,
) *TimelineService {
	return &TimelineService{
		cache:              tc,
		posts:              posts,
		follows:            follows,
		metrics:            reg,
		defaultPageSize:    cfg.DefaultPageSize,
		maxPageSize:        cfg.MaxPageSize,
		celebrityThreshold: cfg.CelebrityFollowerThreshold,
	}
}

// GetTimeline reads one page of the reader's home timeline, newest first.
// The cursor is the id of the last post on the previous page; pages below the
// cursor's embedded timestamp never repeat entries, even when the
// materializer is mid-fan-out.
func (s *TimelineService) GetTimeline(ctx context.Context, readerID uuid.UUID, cursor string, limit int) (*model.Page[model.Post], error) {
	s.metrics.IncTimelineRequests()
	limit = clampLimit(limit, s.defaultPageSize, s.maxPageSize)

	var maxScore *int64
	if cursorID := decodePostCursor(cursor); cursorID != nil {
		score := id.Timestamp(*cursorID)
		maxScore = &score
	}

	cachedIDs, err := s.cache.Range(ctx, readerID, maxScore, limit+1)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.GetByIDs(ctx, cachedIDs)
	if err != nil {
		return nil, err
	}

	merged, err := s.mergeCelebrityPosts(ctx, readerID, posts, maxScore, limit+1)
	if err != nil {
		return nil, err
	}

	// Newest first; UUIDv7 byte order is the chronological order.
	sort.Slice(merged, func(i, j int) bool {
		return bytes.Compare(merged[i].ID[:], merged[j].ID[:]) > 0
	})

	hasMore := len(merged) > limit
	if hasMore {
		merged = merged[:limit]
	}

	var nextCursor *string
	if hasMore && len(merged) > 0 {
		c := encodePostCursor(merged[len(merged)-1].ID)
		nextCursor = &c
	}
	return model.NewPage(merged, nextCursor, hasMore), nil
}

// mergeCelebrityPosts overlays each followed celebrity's recent posts onto
// the cached page, deduplicating against posts already materialized (an
// author can cross the threshold between fan-out and read).
func (s *TimelineService) mergeCelebrityPosts(ctx context.Context, readerID uuid.UUID, posts []model.Post, maxScore *int64, limit int) ([]model.Post, error) {
	celebrities, err := s.follows.GetFollowedCelebrities(ctx, readerID, s.celebrityThreshold)
	if err != nil {
		return nil, err
	}
	if len(celebrities) == 0 {
		return posts, nil
	}

	seen := make(map[uuid.UUID]bool, len(posts))
	for _, p := range posts {
		seen[p.ID] = true
	}

	merged := posts
	for _, celebrityID := range celebrities {
		recent, err := s.posts.GetLatestByAuthor(ctx, celebrityID, limit)
		if err != nil {
			return nil, err
		}
		for _, p := range recent {
			if maxScore != nil && id.Timestamp(p.ID) >= *maxScore {
				continue
			}
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}

	log.Printf("[TimelineService] merge: reader=%s celebrities=%d total=%d", readerID, len(celebrities), len(merged))
	return merged, nil
}
