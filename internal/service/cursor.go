package service

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCursor marks a cursor the client must not have produced from a
// previous response.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// Post cursors are base64 of the canonical UUID string of the last post on
// the previous page. Follow-list cursors are the raw RFC3339 followed_at of
// the last row.

func encodePostCursor(lastID uuid.UUID) string {
	return base64.StdEncoding.EncodeToString([]byte(lastID.String()))
}

// decodePostCursor returns nil for an empty or undecodable cursor, which
// callers treat as "first page".
func decodePostCursor(cursor string) *uuid.UUID {
	if cursor == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return nil
	}
	return &id
}

func encodeTimeCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeTimeCursor is strict: follow-list cursors travel as plain RFC3339
// text, so a malformed value is a client error rather than a first-page read.
func decodeTimeCursor(cursor string) (*time.Time, error) {
	if cursor == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// clampLimit normalizes a requested page size.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
