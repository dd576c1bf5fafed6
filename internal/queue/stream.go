package queue

import (
	"fmt"
	"hash/fnv"
)

// ConsumerGroup is the single logical consumer group for the materializer.
const ConsumerGroup = "timeline-materializer"

// Stream entry field names.
const (
	fieldKey       = "key"
	fieldType      = "type"
	fieldEventID   = "eventId"
	fieldRequestID = "requestId"
	fieldData      = "data"
)

// Message is one event read from the log.
type Message struct {
	ID        string // stream entry id, used for acking
	Key       string // aggregate id (canonical user-id string)
	Type      string // event type header
	EventID   string
	RequestID string
	Payload   []byte
}

// Partition picks the partition for an aggregate key. The hash is
// deterministic, so every event for one aggregate lands on one partition and
// is consumed in publish order.
func Partition(partitions int, key string) int {
	if partitions <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(partitions))
}

// PartitionStream names the physical stream backing one partition of a topic.
func PartitionStream(topic string, partition int) string {
	return fmt.Sprintf("%s:%d", topic, partition)
}

// ParseMessage decodes a stream entry's field map.
func ParseMessage(entryID string, values map[string]interface{}) (Message, error) {
	data, ok := values[fieldData].(string)
	if !ok {
		return Message{}, fmt.Errorf("missing or invalid %q field", fieldData)
	}
	eventType, ok := values[fieldType].(string)
	if !ok {
		return Message{}, fmt.Errorf("missing or invalid %q field", fieldType)
	}

	msg := Message{
		ID:      entryID,
		Type:    eventType,
		Payload: []byte(data),
	}
	if key, ok := values[fieldKey].(string); ok {
		msg.Key = key
	}
	if eventID, ok := values[fieldEventID].(string); ok {
		msg.EventID = eventID
	}
	if requestID, ok := values[fieldRequestID].(string); ok {
		msg.RequestID = requestID
	}
	return msg, nil
}
