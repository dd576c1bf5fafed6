package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Users carry no profile fields: identity is the id itself, and rows are
// created implicitly the first time an id shows up as a caller or as a
// follow target. Listings expose users through FollowedUser instead.

var (
	ErrUserIDEmpty         = errors.New("user id is empty")
	ErrUserIDInvalidFormat = errors.New("user id is not a valid UUID")
)

// ParseUserID validates an externally supplied user id. The canonical form is
// the 36-character hyphenated UUID string.
func ParseUserID(s string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return uuid.Nil, ErrUserIDEmpty
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, ErrUserIDInvalidFormat
	}
	return id, nil
}
