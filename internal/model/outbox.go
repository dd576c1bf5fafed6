package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types as they appear on the wire (outbox rows and stream headers).
const (
	EventPostCreated    = "POST_CREATED"
	EventUserFollowed   = "USER_FOLLOWED"
	EventUserUnfollowed = "USER_UNFOLLOWED"
)

// OutboxRecord is one pending event, written in the same transaction as the
// domain mutation it describes. processed_at IS NULL means undelivered; once
// set it is never cleared, and the row becomes eligible for compaction after
// the retention window.
type OutboxRecord struct {
	ID          uuid.UUID  `db:"id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	RequestID   string     `db:"request_id"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}

// IDValue wraps an id the way event payloads carry them: {"value": "..."}.
type IDValue struct {
	Value uuid.UUID `json:"value"`
}

// PostCreatedEvent is the POST_CREATED payload. The tweetId field name is the
// wire contract and predates the "post" terminology.
type PostCreatedEvent struct {
	EventID    uuid.UUID `json:"eventId"`
	TweetID    uuid.UUID `json:"tweetId"`
	UserID     IDValue   `json:"userId"`
	Content    string    `json:"content"`
	OccurredAt time.Time `json:"occurredAt"`
}

// FollowEvent is the payload for USER_FOLLOWED and USER_UNFOLLOWED.
type FollowEvent struct {
	EventID    uuid.UUID `json:"eventId"`
	FollowerID IDValue   `json:"followerId"`
	FolloweeID IDValue   `json:"followeeId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewPostCreatedRecord builds the outbox row for a freshly created post.
// The aggregate is the author, so all of one author's post events share a
// log partition.
func NewPostCreatedRecord(eventID uuid.UUID, post *Post, requestID string) (*OutboxRecord, error) {
	now := time.Now().UTC()
	payload, err := json.Marshal(PostCreatedEvent{
		EventID:    eventID,
		TweetID:    post.ID,
		UserID:     IDValue{Value: post.UserID},
		Content:    post.Content,
		OccurredAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", EventPostCreated, err)
	}

	return &OutboxRecord{
		ID:          eventID,
		EventType:   EventPostCreated,
		AggregateID: post.UserID.String(),
		Payload:     payload,
		RequestID:   requestID,
		CreatedAt:   now,
	}, nil
}

// NewFollowRecord builds the outbox row for a follow or unfollow. The
// aggregate is the follower: backfills and purges for one reader are ordered
// relative to each other.
func NewFollowRecord(eventType string, eventID, followerID, followeeID uuid.UUID, requestID string) (*OutboxRecord, error) {
	if eventType != EventUserFollowed && eventType != EventUserUnfollowed {
		return nil, fmt.Errorf("invalid follow event type: %s", eventType)
	}

	now := time.Now().UTC()
	payload, err := json.Marshal(FollowEvent{
		EventID:    eventID,
		FollowerID: IDValue{Value: followerID},
		FolloweeID: IDValue{Value: followeeID},
		OccurredAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &OutboxRecord{
		ID:          eventID,
		EventType:   eventType,
		AggregateID: followerID.String(),
		Payload:     payload,
		RequestID:   requestID,
		CreatedAt:   now,
	}, nil
}
