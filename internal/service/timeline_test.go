package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"chirper/internal/metrics"
	"chirper/internal/model"
)

// v7At builds a UUIDv7 with a chosen millisecond timestamp, so tests control
// both ordering and the cursor cutoff exactly.
func v7At(ms int64, seq byte) uuid.UUID {
	var u uuid.UUID
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)
	u[6] = 0x70
	u[8] = 0x80
	u[15] = seq
	return u
}

func noCelebrities() *mockFollowRepo {
	return &mockFollowRepo{
		GetFollowedCelebritiesFunc: func(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error) {
			return nil, nil
		},
	}
}

func postsByID(posts ...model.Post) *mockPostRepo {
	index := make(map[uuid.UUID]model.Post, len(posts))
	for _, p := range posts {
		index[p.ID] = p
	}
	return &mockPostRepo{
		GetByIDsFunc: func(ctx context.Context, ids []uuid.UUID) ([]model.Post, error) {
			var out []model.Post
			for _, pid := range ids {
				if p, ok := index[pid]; ok {
					out = append(out, p)
				}
			}
			return out, nil
		},
	}
}

func TestGetTimelineServesCachedPage(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	author := uuid.Must(uuid.NewV7())

	p1 := model.Post{ID: v7At(1000, 1), UserID: author, Content: "oldest"}
	p2 := model.Post{ID: v7At(2000, 1), UserID: author, Content: "middle"}
	p3 := model.Post{ID: v7At(3000, 1), UserID: author, Content: "newest"}

	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			if maxScore != nil {
				t.Errorf("first page passed maxScore %v", *maxScore)
			}
			return []uuid.UUID{p3.ID, p2.ID, p1.ID}, nil
		},
	}
	svc := NewTimelineService(tc, postsByID(p1, p2, p3), noCelebrities(), metrics.NewRegistry(), timelineCfg())

	page, err := svc.GetTimeline(context.Background(), reader, "", 20)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if len(page.Data) != 3 {
		t.Fatalf("data = %d posts, want 3", len(page.Data))
	}
	wantOrder := []uuid.UUID{p3.ID, p2.ID, p1.ID}
	for i, want := range wantOrder {
		if page.Data[i].ID != want {
			t.Errorf("data[%d] = %s, want %s", i, page.Data[i].ID, want)
		}
	}
	if page.Pagination.HasMore {
		t.Error("hasMore = true, want false")
	}
}

func TestGetTimelineMergesCelebrityPosts(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	regular := uuid.Must(uuid.NewV7())
	celebrity := uuid.Must(uuid.NewV7())

	cached := model.Post{ID: v7At(2000, 1), UserID: regular, Content: "cached"}
	celebOld := model.Post{ID: v7At(1000, 2), UserID: celebrity, Content: "celeb old"}
	celebNew := model.Post{ID: v7At(3000, 2), UserID: celebrity, Content: "celeb new"}

	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			return []uuid.UUID{cached.ID}, nil
		},
	}
	follows := &mockFollowRepo{
		GetFollowedCelebritiesFunc: func(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error) {
			if threshold != 10000 {
				t.Errorf("threshold = %d, want 10000", threshold)
			}
			return []uuid.UUID{celebrity}, nil
		},
	}
	posts := postsByID(cached)
	posts.GetLatestByAuthorFunc = func(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error) {
		return []model.Post{celebNew, celebOld}, nil
	}

	svc := NewTimelineService(tc, posts, follows, metrics.NewRegistry(), timelineCfg())

	page, err := svc.GetTimeline(context.Background(), reader, "", 20)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	wantOrder := []uuid.UUID{celebNew.ID, cached.ID, celebOld.ID}
	if len(page.Data) != len(wantOrder) {
		t.Fatalf("data = %d posts, want %d", len(page.Data), len(wantOrder))
	}
	for i, want := range wantOrder {
		if page.Data[i].ID != want {
			t.Errorf("data[%d] = %s, want %s", i, page.Data[i].ID, want)
		}
	}
}

func TestGetTimelineDeduplicatesMergedPosts(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	celebrity := uuid.Must(uuid.NewV7())

	// The same post is both materialized (fanned out before the author
	// crossed the threshold) and merged live.
	shared := model.Post{ID: v7At(2000, 1), UserID: celebrity, Content: "shared"}

	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			return []uuid.UUID{shared.ID}, nil
		},
	}
	follows := &mockFollowRepo{
		GetFollowedCelebritiesFunc: func(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error) {
			return []uuid.UUID{celebrity}, nil
		},
	}
	posts := postsByID(shared)
	posts.GetLatestByAuthorFunc = func(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error) {
		return []model.Post{shared}, nil
	}

	svc := NewTimelineService(tc, posts, follows, metrics.NewRegistry(), timelineCfg())

	page, err := svc.GetTimeline(context.Background(), reader, "", 20)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if len(page.Data) != 1 {
		t.Errorf("data = %d posts, want 1 after dedupe", len(page.Data))
	}
}

func TestGetTimelineCursorExcludesNewerCelebrityPosts(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	celebrity := uuid.Must(uuid.NewV7())

	cursorID := v7At(2000, 1)
	celebAtCursor := model.Post{ID: v7At(2000, 2), UserID: celebrity}
	celebNewer := model.Post{ID: v7At(3000, 2), UserID: celebrity}
	celebOlder := model.Post{ID: v7At(1000, 2), UserID: celebrity}

	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			if maxScore == nil || *maxScore != 2000 {
				t.Errorf("maxScore = %v, want 2000", maxScore)
			}
			return nil, nil
		},
	}
	follows := &mockFollowRepo{
		GetFollowedCelebritiesFunc: func(ctx context.Context, userID uuid.UUID, threshold int) ([]uuid.UUID, error) {
			return []uuid.UUID{celebrity}, nil
		},
	}
	posts := postsByID()
	posts.GetLatestByAuthorFunc = func(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Post, error) {
		return []model.Post{celebNewer, celebAtCursor, celebOlder}, nil
	}

	svc := NewTimelineService(tc, posts, follows, metrics.NewRegistry(), timelineCfg())

	page, err := svc.GetTimeline(context.Background(), reader, encodePostCursor(cursorID), 20)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	// Posts at or above the cursor's timestamp are cut; only the older one
	// survives.
	if len(page.Data) != 1 || page.Data[0].ID != celebOlder.ID {
		t.Errorf("data = %v, want only %s", page.Data, celebOlder.ID)
	}
}

func TestGetTimelinePaginatesMergedResult(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	author := uuid.Must(uuid.NewV7())

	stored := make([]model.Post, 25)
	cachedIDs := make([]uuid.UUID, 25)
	for i := range stored {
		stored[i] = model.Post{ID: v7At(int64(25-i)*1000, 1), UserID: author}
		cachedIDs[i] = stored[i].ID
	}

	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			if limit != 21 {
				t.Errorf("cache limit = %d, want 21", limit)
			}
			return cachedIDs[:limit], nil
		},
	}
	svc := NewTimelineService(tc, postsByID(stored...), noCelebrities(), metrics.NewRegistry(), timelineCfg())

	page, err := svc.GetTimeline(context.Background(), reader, "", 20)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if len(page.Data) != 20 || !page.Pagination.HasMore {
		t.Fatalf("page = %d rows hasMore=%v, want 20 rows hasMore=true", len(page.Data), page.Pagination.HasMore)
	}
	if page.Pagination.NextCursor == nil {
		t.Fatal("nextCursor = nil")
	}
	decoded := decodePostCursor(*page.Pagination.NextCursor)
	if decoded == nil || *decoded != page.Data[19].ID {
		t.Errorf("nextCursor decodes to %v, want %s", decoded, page.Data[19].ID)
	}
}

func TestGetTimelineEmptyForNewReader(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			return nil, nil
		},
	}
	svc := NewTimelineService(tc, postsByID(), noCelebrities(), metrics.NewRegistry(), timelineCfg())

	page, err := svc.GetTimeline(context.Background(), reader, "", 20)
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if page.Data == nil || len(page.Data) != 0 {
		t.Errorf("data = %v, want empty non-nil slice", page.Data)
	}
}

func TestGetTimelineCountsRequests(t *testing.T) {
	reader := uuid.Must(uuid.NewV7())
	reg := metrics.NewRegistry()
	tc := &mockTimelineCache{
		RangeFunc: func(ctx context.Context, readerID uuid.UUID, maxScore *int64, limit int) ([]uuid.UUID, error) {
			return nil, nil
		},
	}
	svc := NewTimelineService(tc, postsByID(), noCelebrities(), reg, timelineCfg())

	if _, err := svc.GetTimeline(context.Background(), reader, "", 20); err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}
	if got := reg.Snapshot()["timelineRequests"]; got != 1 {
		t.Errorf("timelineRequests = %d, want 1", got)
	}
}
