package service

import (
	"context"
	"log"

	"chirper/internal/cache"
	"chirper/internal/metrics"
	"chirper/internal/model"
	"chirper/internal/repository"
)

// StreamPurger wipes the partitioned log. Satisfied by the stream publisher.
type StreamPurger interface {
	PurgeAll(ctx context.Context) (int64, error)
}

// AdminService backs the demo endpoints: live counts and a full reset.
type AdminService struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	follows repository.FollowRepository
	outbox  repository.OutboxRepository
	cache   cache.TimelineCache
	purger  StreamPurger
	metrics *metrics.Registry
}

func NewAdminService(
	users repository.UserRepository,
	posts repository.PostRepository,
	follows repository.FollowRepository,
	outbox repository.OutboxRepository,
	tc cache.TimelineCache,
	purger StreamPurger,
	reg *metrics.Registry,
) *AdminService {
	return &AdminService{
		users:   users,
		posts:   posts,
		follows: follows,
		outbox:  outbox,
		cache:   tc,
		purger:  purger,
		metrics: reg,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*model.Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	tweets, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	follows, err := s.follows.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.outbox.CountUnprocessed(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Stats{
		Users:         users,
		Tweets:        tweets,
		Follows:       follows,
		OutboxPending: pending,
	}, nil
}

func (s *AdminService) Counters() map[string]int64 {
	return s.metrics.Snapshot()
}

// Reset wipes every store: relational rows, timeline caches, stream
// partitions and counters. Deletion order respects foreign keys (follows and
// tweets reference users).
func (s *AdminService) Reset(ctx context.Context) (*model.ResetResult, error) {
	follows, err := s.follows.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	tweets, err := s.posts.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	outboxRecords, err := s.outbox.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	timelineKeys, err := s.cache.FlushAll(ctx)
	if err != nil {
		return nil, err
	}
	streamEntries, err := s.purger.PurgeAll(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.ResetAll()

	result := &model.ResetResult{
		Users:         users,
		Tweets:        tweets,
		Follows:       follows,
		OutboxRecords: outboxRecords,
		TimelineKeys:  timelineKeys,
		StreamEntries: streamEntries,
	}
	log.Printf("[AdminService] Reset OK: users=%d tweets=%d follows=%d outbox=%d timelines=%d streamEntries=%d",
		users, tweets, follows, outboxRecords, timelineKeys, streamEntries)
	return result, nil
}
