package id

import (
	"github.com/google/uuid"
)

// Generator mints time-ordered identifiers for posts, users and events.
// Using an interface lets service tests substitute a deterministic clock.
type Generator interface {
	Generate() uuid.UUID
}

// UUIDv7Generator produces UUIDv7 values: the high 48 bits carry the
// millisecond epoch, so lexicographic byte order equals chronological order.
// The underlying library serializes concurrent calls and folds a counter into
// the sub-millisecond bits, so two IDs minted in the same millisecond still
// compare distinctly and non-decreasingly.
type UUIDv7Generator struct{}

func NewGenerator() *UUIDv7Generator {
	return &UUIDv7Generator{}
}

func (g *UUIDv7Generator) Generate() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// Timestamp extracts the embedded creation time (ms since epoch) from a
// UUIDv7: the first six bytes of the value.
func Timestamp(id uuid.UUID) int64 {
	return int64(id[0])<<40 |
		int64(id[1])<<32 |
		int64(id[2])<<24 |
		int64(id[3])<<16 |
		int64(id[4])<<8 |
		int64(id[5])
}
