package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"chirper/internal/model"
)

// Publisher appends outbox records to the partitioned log.
type Publisher interface {
	// Publish writes one record to the partition owning its aggregate.
	Publish(ctx context.Context, rec model.OutboxRecord) error
}

// StreamPublisher implements Publisher on Redis Streams: one stream per
// partition, partition chosen by hashing the aggregate id.
type StreamPublisher struct {
	client     *redis.Client
	topic      string
	partitions int
}

func NewPublisher(client *redis.Client, topic string, partitions int) *StreamPublisher {
	if partitions < 1 {
		partitions = 1
	}
	return &StreamPublisher{client: client, topic: topic, partitions: partitions}
}

func (p *StreamPublisher) Publish(ctx context.Context, rec model.OutboxRecord) error {
	stream := PartitionStream(p.topic, Partition(p.partitions, rec.AggregateID))

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			fieldKey:       rec.AggregateID,
			fieldType:      rec.EventType,
			fieldEventID:   rec.ID.String(),
			fieldRequestID: rec.RequestID,
			fieldData:      string(rec.Payload),
		},
	}).Err()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s aggregate=%s err=%v",
			stream, rec.EventType, rec.AggregateID, err)
		return fmt.Errorf("xadd to stream %s: %w", stream, err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s aggregate=%s eventId=%s",
		stream, rec.EventType, rec.AggregateID, rec.ID)
	return nil
}

// Partitions reports the partition count so the consumer side can start one
// worker per partition.
func (p *StreamPublisher) Partitions() int {
	return p.partitions
}

// PurgeAll deletes every partition stream. Demo reset only.
func (p *StreamPublisher) PurgeAll(ctx context.Context) (int64, error) {
	var purged int64
	for i := 0; i < p.partitions; i++ {
		stream := PartitionStream(p.topic, i)
		n, err := p.client.XLen(ctx, stream).Result()
		if err != nil && err != redis.Nil {
			return purged, fmt.Errorf("xlen %s: %w", stream, err)
		}
		if err := p.client.Del(ctx, stream).Err(); err != nil {
			return purged, fmt.Errorf("delete stream %s: %w", stream, err)
		}
		purged += n
	}
	log.Printf("[Publisher] PurgeAll OK: topic=%s partitions=%d entries=%d", p.topic, p.partitions, purged)
	return purged, nil
}
