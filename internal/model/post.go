package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxPostContentLength is the content cap in Unicode code points, measured
// after trimming surrounding whitespace.
const MaxPostContentLength = 280

// Post is an immutable message. The id is a UUIDv7, so the id itself carries
// the canonical ordering key; CreatedAt is display metadata.
type Post struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

var (
	ErrContentEmpty   = errors.New("post content is empty")
	ErrContentTooLong = errors.New("post content exceeds the maximum length")
)

// NewPost validates content and builds a post. Content is stored trimmed.
func NewPost(id, userID uuid.UUID, content string) (*Post, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrContentEmpty
	}
	if utf8.RuneCountInString(trimmed) > MaxPostContentLength {
		return nil, ErrContentTooLong
	}

	return &Post{
		ID:        id,
		UserID:    userID,
		Content:   trimmed,
		CreatedAt: time.Now().UTC(),
	}, nil
}
