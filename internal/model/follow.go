package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Follow struct {
	FollowerID uuid.UUID `db:"follower_id" json:"followerId"`
	FolloweeID uuid.UUID `db:"followee_id" json:"followeeId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FollowedUser is one row of a followers/following page: the related user
// plus the instant the relationship was created, which doubles as the cursor.
type FollowedUser struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserCreatedAt time.Time `db:"user_created_at" json:"createdAt"`
	FollowedAt    time.Time `db:"followed_at" json:"followedAt"`
}

var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

func NewFollow(followerID, followeeID uuid.UUID) (*Follow, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}
	return &Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
