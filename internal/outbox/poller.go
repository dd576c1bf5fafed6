package outbox

import (
	"context"
	"log"
	"sync"
	"time"

	"chirper/internal/config"
	"chirper/internal/metrics"
	"chirper/internal/model"
	"chirper/internal/queue"
)

// Source is the slice of the outbox store the poller needs.
type Source interface {
	Drain(ctx context.Context, limit int, publish func(context.Context, model.OutboxRecord) error) (int, error)
	CompactProcessedBefore(ctx context.Context, threshold time.Time) (int64, error)
}

// Poller moves committed outbox records onto the log. It ticks at a fixed
// interval, draining one batch per tick, and runs a slower sweeper that
// compacts processed records past the retention window.
type Poller struct {
	source    Source
	publisher queue.Publisher
	metrics   *metrics.Registry

	pollInterval time.Duration
	batchSize    int
	retention    time.Duration
	sweepEvery   time.Duration
	opTimeout    time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewPoller(source Source, publisher queue.Publisher, reg *metrics.Registry, cfg config.OutboxConfig) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = time.Hour
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 30 * time.Second
	}

	return &Poller{
		source:       source,
		publisher:    publisher,
		metrics:      reg,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		retention:    cfg.Retention,
		sweepEvery:   cfg.SweepEvery,
		opTimeout:    cfg.OpTimeout,
	}
}

// Start launches the drain loop and the retention sweeper.
// Call Stop() to shut down.
func (p *Poller) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	log.Printf("[Outbox] Starting poller: interval=%s batch=%d retention=%s",
		p.pollInterval, p.batchSize, p.retention)

	p.wg.Add(2)
	go p.runDrainLoop()
	go p.runSweeper()
}

// Stop shuts down both loops and blocks until they finish. An in-flight
// drain completes its transaction before the loop exits.
func (p *Poller) Stop() {
	log.Printf("[Outbox] Stopping poller...")
	p.cancel()
	p.wg.Wait()
	log.Printf("[Outbox] Poller stopped")
}

func (p *Poller) runDrainLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.drainOnce()
		}
	}
}

func (p *Poller) drainOnce() {
	ctx, cancel := context.WithTimeout(p.ctx, p.opTimeout)
	defer cancel()

	published, err := p.source.Drain(ctx, p.batchSize, p.publisher.Publish)
	if err != nil {
		log.Printf("[Outbox] Drain FAILED: %v", err)
		return
	}
	if published > 0 {
		p.metrics.AddEventsPublished(published)
		log.Printf("[Outbox] Drain OK: published=%d", published)
	}
}

func (p *Poller) runSweeper() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.sweepOnce()
		}
	}
}

func (p *Poller) sweepOnce() {
	ctx, cancel := context.WithTimeout(p.ctx, p.opTimeout)
	defer cancel()

	threshold := time.Now().UTC().Add(-p.retention)
	removed, err := p.source.CompactProcessedBefore(ctx, threshold)
	if err != nil {
		log.Printf("[Outbox] Compact FAILED: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Outbox] Compact OK: removed=%d threshold=%s", removed, threshold.Format(time.RFC3339))
	}
}
