package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TimelineKeyPrefix is the key prefix for per-reader timelines.
const TimelineKeyPrefix = "timeline:"

// PostScore pairs a post id with its sort key, the timestamp embedded in the
// id.
type PostScore struct {
	PostID uuid.UUID
	Score  int64
}

// TimelineCache is the materialized per-reader timeline: a sorted set of post
// ids scored by post timestamp, capped at a configured size. Writes come only
// from the materializer, reads only from the timeline service; the cache is
// never authoritative.
type TimelineCache interface {
	// Add inserts one post and trims the timeline to its cap.
	Add(ctx context.Context, readerID, postID uuid.UUID, score int64) error

	// AddMany bulk-inserts posts (backfill) and trims to the cap.
	AddMany(ctx context.Context, readerID uuid.UUID, entries []PostScore) error

	// Remove deletes one post. Removing an absent member is a no-op.
	Remove(ctx context.Context, readerID, postID uuid.UUID) error

	// RemoveMany deletes a batch of posts (unfollow purge).
	RemoveMany(ctx context.Context, readerID uuid.UUID, postIDs []uuid.UUID) error

	// Range returns post ids sorted by score descending. A non-nil maxScore
	// is an exclusive upper bound.
	Range(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error)

	// Trim drops the lowest-scored entries beyond maxSize.
	Trim(ctx context.Context, readerID uuid.UUID, maxSize int) error

	// Size reports the number of cached entries for one reader.
	Size(ctx context.Context, readerID uuid.UUID) (int64, error)

	// FlushAll deletes every timeline key and returns how many were dropped.
	FlushAll(ctx context.Context) (int64, error)
}

// RedisTimelineCache implements TimelineCache on Redis sorted sets.
type RedisTimelineCache struct {
	client  *redis.Client
	maxSize int
}

func NewTimelineCache(client *redis.Client, maxSize int) *RedisTimelineCache {
	return &RedisTimelineCache{client: client, maxSize: maxSize}
}

func timelineKey(readerID uuid.UUID) string {
	return TimelineKeyPrefix + readerID.String()
}

// Add uses a pipeline: ZADD + ZREMRANGEBYRANK to hold the cap invariant.
func (c *RedisTimelineCache) Add(ctx context.Context, readerID, postID uuid.UUID, score int64) error {
	key := timelineKey(readerID)

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(score),
		Member: postID.String(),
	})
	// Keep only the maxSize highest scores; rank 0 is the oldest entry.
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-c.maxSize-1))

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] Add FAILED: reader=%s post=%s err=%v", readerID, postID, err)
		return fmt.Errorf("add post to timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) AddMany(ctx context.Context, readerID uuid.UUID, entries []PostScore) error {
	if len(entries) == 0 {
		return nil
	}
	key := timelineKey(readerID)
	startTime := time.Now()

	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{
			Score:  float64(e.Score),
			Member: e.PostID.String(),
		}
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, key, members...)
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-c.maxSize-1))

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] AddMany FAILED: reader=%s entries=%d err=%v", readerID, len(entries), err)
		return fmt.Errorf("add posts to timeline: %w", err)
	}

	log.Printf("[TimelineCache] AddMany OK: reader=%s entries=%d duration=%v",
		readerID, len(entries), time.Since(startTime))
	return nil
}

func (c *RedisTimelineCache) Remove(ctx context.Context, readerID, postID uuid.UUID) error {
	key := timelineKey(readerID)
	if err := c.client.ZRem(ctx, key, postID.String()).Err(); err != nil {
		log.Printf("[TimelineCache] Remove FAILED: reader=%s post=%s err=%v", readerID, postID, err)
		return fmt.Errorf("remove post from timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) RemoveMany(ctx context.Context, readerID uuid.UUID, postIDs []uuid.UUID) error {
	if len(postIDs) == 0 {
		return nil
	}
	key := timelineKey(readerID)

	members := make([]interface{}, len(postIDs))
	for i, id := range postIDs {
		members[i] = id.String()
	}

	removed, err := c.client.ZRem(ctx, key, members...).Result()
	if err != nil {
		log.Printf("[TimelineCache] RemoveMany FAILED: reader=%s posts=%d err=%v", readerID, len(postIDs), err)
		return fmt.Errorf("remove posts from timeline: %w", err)
	}

	log.Printf("[TimelineCache] RemoveMany OK: reader=%s requested=%d removed=%d", readerID, len(postIDs), removed)
	return nil
}

// Range reads newest-first. With a cursor the upper bound is exclusive, so a
// page never repeats the post the cursor came from.
func (c *RedisTimelineCache) Range(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
	key := timelineKey(readerID)

	var members []string
	var err error

	if maxScore == nil {
		members, err = c.client.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	} else {
		members, err = c.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   "(" + strconv.FormatInt(*maxScore, 10),
			Count: int64(limit),
		}).Result()
	}
	if err != nil {
		log.Printf("[TimelineCache] Range FAILED: reader=%s err=%v", readerID, err)
		return nil, fmt.Errorf("read timeline range: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		postID, err := uuid.Parse(m)
		if err != nil {
			log.Printf("[TimelineCache] Range parse error: member=%q err=%v", m, err)
			return nil, fmt.Errorf("parse cached post id: %w", err)
		}
		ids = append(ids, postID)
	}
	return ids, nil
}

func (c *RedisTimelineCache) Trim(ctx context.Context, readerID uuid.UUID, maxSize int) error {
	key := timelineKey(readerID)
	if err := c.client.ZRemRangeByRank(ctx, key, 0, int64(-maxSize-1)).Err(); err != nil {
		return fmt.Errorf("trim timeline: %w", err)
	}
	return nil
}

func (c *RedisTimelineCache) Size(ctx context.Context, readerID uuid.UUID) (int64, error) {
	size, err := c.client.ZCard(ctx, timelineKey(readerID)).Result()
	if err != nil {
		return 0, fmt.Errorf("timeline size: %w", err)
	}
	return size, nil
}

// FlushAll scans for timeline keys and deletes them in batches.
func (c *RedisTimelineCache) FlushAll(ctx context.Context) (int64, error) {
	var deleted int64
	iter := c.client.Scan(ctx, 0, TimelineKeyPrefix+"*", 100).Iterator()

	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += n
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := flush(); err != nil {
				return deleted, fmt.Errorf("flush timelines: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scan timelines: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, fmt.Errorf("flush timelines: %w", err)
	}

	log.Printf("[TimelineCache] FlushAll OK: deleted=%d", deleted)
	return deleted, nil
}
