package sharding

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Router maps users onto relational shards with a pure, stable function.
// With one shard the mapping is the identity and nothing depends on it.
type Router struct {
	shardCount int
}

func NewRouter(shardCount int) *Router {
	if shardCount < 1 {
		shardCount = 1
	}
	return &Router{shardCount: shardCount}
}

// Shard returns the shard index for a user: fnv32a(id) mod N.
func (r *Router) Shard(userID uuid.UUID) int {
	if r.shardCount == 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write(userID[:])
	return int(h.Sum32() % uint32(r.shardCount))
}

func (r *Router) ShardCount() int {
	return r.shardCount
}
