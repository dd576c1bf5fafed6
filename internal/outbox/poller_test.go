package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"chirper/internal/config"
	"chirper/internal/metrics"
	"chirper/internal/model"
)

type mockSource struct {
	mu      sync.Mutex
	pending []model.OutboxRecord

	drainErr   error
	compacted  []time.Time
	compactErr error
}

func (m *mockSource) Drain(ctx context.Context, limit int, publish func(context.Context, model.OutboxRecord) error) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.drainErr != nil {
		return 0, m.drainErr
	}

	batch := m.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	for _, rec := range batch {
		if err := publish(ctx, rec); err != nil {
			return 0, err
		}
	}
	m.pending = m.pending[len(batch):]
	return len(batch), nil
}

func (m *mockSource) CompactProcessedBefore(ctx context.Context, threshold time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.compactErr != nil {
		return 0, m.compactErr
	}
	m.compacted = append(m.compacted, threshold)
	return 3, nil
}

func (m *mockSource) pendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

type mockPublisher struct {
	mu        sync.Mutex
	published []model.OutboxRecord
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, rec model.OutboxRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, rec)
	return nil
}

func (m *mockPublisher) publishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func pendingRecords(n int) []model.OutboxRecord {
	recs := make([]model.OutboxRecord, n)
	for i := range recs {
		recs[i] = model.OutboxRecord{
			ID:          uuid.Must(uuid.NewV7()),
			EventType:   model.EventPostCreated,
			AggregateID: uuid.NewString(),
			Payload:     []byte(`{}`),
			CreatedAt:   time.Now().UTC(),
		}
	}
	return recs
}

func pollerConfig() config.OutboxConfig {
	return config.OutboxConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    5,
		Retention:    24 * time.Hour,
		SweepEvery:   time.Hour,
		OpTimeout:    time.Second,
	}
}

func TestPollerDrainsPendingRecords(t *testing.T) {
	source := &mockSource{pending: pendingRecords(12)}
	publisher := &mockPublisher{}
	reg := metrics.NewRegistry()

	p := NewPoller(source, publisher, reg, pollerConfig())
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for source.pendingCount() > 0 {
		select {
		case <-deadline:
			t.Fatalf("poller did not drain outbox, %d records left", source.pendingCount())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := publisher.publishedCount(); got != 12 {
		t.Errorf("published = %d, want 12", got)
	}
	if got := reg.Snapshot()["eventsPublished"]; got != 12 {
		t.Errorf("eventsPublished counter = %d, want 12", got)
	}
}

func TestPollerBatchesByConfiguredSize(t *testing.T) {
	source := &mockSource{pending: pendingRecords(7)}
	publisher := &mockPublisher{}

	cfg := pollerConfig()
	cfg.BatchSize = 3

	p := NewPoller(source, publisher, metrics.NewRegistry(), cfg)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for publisher.publishedCount() < 7 {
		select {
		case <-deadline:
			t.Fatalf("published %d of 7", publisher.publishedCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPollerKeepsTickingAfterDrainError(t *testing.T) {
	source := &mockSource{pending: pendingRecords(2), drainErr: errors.New("db down")}
	publisher := &mockPublisher{}

	p := NewPoller(source, publisher, metrics.NewRegistry(), pollerConfig())
	p.Start(context.Background())
	defer p.Stop()

	time.Sleep(50 * time.Millisecond)

	// Recover the source; the loop should pick the batch up on its own.
	source.mu.Lock()
	source.drainErr = nil
	source.mu.Unlock()

	deadline := time.After(2 * time.Second)
	for publisher.publishedCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("poller did not recover after drain error")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPollerPublishFailureLeavesRecordsPending(t *testing.T) {
	source := &mockSource{pending: pendingRecords(4)}
	publisher := &mockPublisher{err: errors.New("stream unavailable")}

	p := NewPoller(source, publisher, metrics.NewRegistry(), pollerConfig())
	p.Start(context.Background())

	time.Sleep(60 * time.Millisecond)
	p.Stop()

	if got := source.pendingCount(); got != 4 {
		t.Errorf("pending = %d, want 4 (records must stay unprocessed on publish failure)", got)
	}
}

func TestPollerSweepsRetentionWindow(t *testing.T) {
	source := &mockSource{}
	publisher := &mockPublisher{}

	cfg := pollerConfig()
	cfg.SweepEvery = 10 * time.Millisecond
	cfg.Retention = 24 * time.Hour

	p := NewPoller(source, publisher, metrics.NewRegistry(), cfg)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for {
		source.mu.Lock()
		n := len(source.compacted)
		var threshold time.Time
		if n > 0 {
			threshold = source.compacted[0]
		}
		source.mu.Unlock()

		if n > 0 {
			age := time.Since(threshold)
			if age < 23*time.Hour || age > 25*time.Hour {
				t.Errorf("compact threshold %s not ~24h old", threshold)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPollerStopIsIdempotentWaits(t *testing.T) {
	source := &mockSource{pending: pendingRecords(1)}
	p := NewPoller(source, &mockPublisher{}, metrics.NewRegistry(), pollerConfig())
	p.Start(context.Background())

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
