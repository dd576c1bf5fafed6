package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"chirper/internal/config"
	"chirper/internal/queue"
)

const (
	// DefaultBatchSize is the number of messages to read per XREADGROUP.
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long a read blocks waiting for messages.
	DefaultBlockTimeout = 5 * time.Second
)

// Manager runs one consumer goroutine per log partition. A single goroutine
// per partition is what preserves per-aggregate ordering: events for one
// aggregate hash to one partition and are applied in log order.
type Manager struct {
	consumer   queue.Consumer
	handler    *Handler
	topic      string
	partitions int
	batchSize  int64
	blockTime  time.Duration

	group  *errgroup.Group
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler *Handler, stream config.StreamConfig, worker config.WorkerConfig) *Manager {
	if worker.BatchSize <= 0 {
		worker.BatchSize = DefaultBatchSize
	}
	if worker.BlockTimeout <= 0 {
		worker.BlockTimeout = DefaultBlockTimeout
	}
	partitions := stream.Partitions
	if partitions < 1 {
		partitions = 1
	}

	return &Manager{
		consumer:   consumer,
		handler:    handler,
		topic:      stream.Topic,
		partitions: partitions,
		batchSize:  worker.BatchSize,
		blockTime:  worker.BlockTimeout,
	}
}

// Start creates the consumer group on every partition stream, then launches
// the partition loops. Call Stop() to shut down.
func (m *Manager) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)
	m.group, ctx = errgroup.WithContext(ctx)

	for p := 0; p < m.partitions; p++ {
		stream := queue.PartitionStream(m.topic, p)
		if err := m.consumer.EnsureGroup(ctx, stream, queue.ConsumerGroup); err != nil {
			m.cancel()
			return fmt.Errorf("ensure group on %s: %w", stream, err)
		}
	}

	log.Printf("[Manager] Starting %d partition consumers: topic=%s group=%s",
		m.partitions, m.topic, queue.ConsumerGroup)

	for p := 0; p < m.partitions; p++ {
		partition := p
		m.group.Go(func() error {
			m.runPartition(ctx, partition)
			return nil
		})
	}
	return nil
}

// Stop cancels the partition loops and blocks until they exit.
func (m *Manager) Stop() {
	log.Printf("[Manager] Stopping consumers...")
	m.cancel()
	if err := m.group.Wait(); err != nil {
		log.Printf("[Manager] consumer exited with error: %v", err)
	}
	log.Printf("[Manager] All consumers stopped")
}

// runPartition is the loop for one partition: recover pending deliveries
// first, then read new messages until the context ends.
func (m *Manager) runPartition(ctx context.Context, partition int) {
	stream := queue.PartitionStream(m.topic, partition)
	consumerName := fmt.Sprintf("partition-%d", partition)

	log.Printf("[Worker] Started: stream=%s consumer=%s", stream, consumerName)

	m.processPending(ctx, stream, consumerName)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Worker] Shutting down: stream=%s", stream)
			return
		default:
			m.processNew(ctx, stream, consumerName)
		}
	}
}

// processPending replays messages delivered to this consumer but never acked
// (crash between handle and ack). Handlers are idempotent, so reapplying is
// safe.
func (m *Manager) processPending(ctx context.Context, stream, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(ctx, stream, queue.ConsumerGroup, consumerName, m.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[Worker] ReadPending FAILED: stream=%s err=%v", stream, err)
			}
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Printf("[Worker] Replaying %d pending messages: stream=%s", len(messages), stream)
		m.handleBatch(ctx, stream, messages)
	}
}

func (m *Manager) processNew(ctx context.Context, stream, consumerName string) {
	messages, err := m.consumer.Read(ctx, stream, queue.ConsumerGroup, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[Worker] Read FAILED: stream=%s err=%v", stream, err)
			time.Sleep(time.Second)
		}
		return
	}
	if len(messages) == 0 {
		return
	}
	m.handleBatch(ctx, stream, messages)
}

// handleBatch applies messages in order and acks each one. A handler error is
// logged and the message is acked anyway: retrying a poisoned message would
// stall the whole partition, and the timeline converges through later events
// and read-path merging.
func (m *Manager) handleBatch(ctx context.Context, stream string, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleMessage(ctx, msg); err != nil {
			log.Printf("[Worker] Handle FAILED: stream=%s msgID=%s type=%s err=%v",
				stream, msg.ID, msg.Type, err)
		}
		if err := m.consumer.Ack(ctx, stream, queue.ConsumerGroup, msg.ID); err != nil {
			log.Printf("[Worker] Ack FAILED: stream=%s msgID=%s err=%v", stream, msg.ID, err)
		}
	}
}
