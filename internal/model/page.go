package model

// Pagination carries the cursor for the next page. NextCursor is null when
// HasMore is false.
type Pagination struct {
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// Page is the envelope every list endpoint returns.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage builds a page from items already trimmed to the requested limit.
func NewPage[T any](items []T, nextCursor *string, hasMore bool) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Data: items,
		Pagination: Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}

// Stats reports entity counts for the demo endpoints.
type Stats struct {
	Users         int64 `json:"users"`
	Tweets        int64 `json:"tweets"`
	Follows       int64 `json:"follows"`
	OutboxPending int64 `json:"outboxPending"`
}

// ResetResult reports what a demo reset wiped.
type ResetResult struct {
	Users         int64 `json:"users"`
	Tweets        int64 `json:"tweets"`
	Follows       int64 `json:"follows"`
	OutboxRecords int64 `json:"outboxRecords"`
	TimelineKeys  int64 `json:"timelineKeys"`
	StreamEntries int64 `json:"streamEntries"`
}
