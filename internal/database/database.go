package database

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"chirper/internal/config"
	"chirper/internal/sharding"
)

// Cluster holds one connection pool per shard. Repositories route each call
// through For using the owning user's id; with sharding disabled there is a
// single pool and every call lands on it.
type Cluster struct {
	pools  []*sqlx.DB
	router *sharding.Router
}

func Connect(cfg *config.Config) (*Cluster, error) {
	dsns := []string{cfg.DSN()}
	if cfg.Sharding.Enabled && len(cfg.Sharding.DSNs) > 0 {
		dsns = cfg.Sharding.DSNs
	}

	pools := make([]*sqlx.DB, 0, len(dsns))
	for i, dsn := range dsns {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			for _, p := range pools {
				p.Close()
			}
			return nil, fmt.Errorf("connect shard %d: %w", i, err)
		}
		pools = append(pools, db)
	}

	log.Printf("[Database] Connected: shards=%d", len(pools))
	return &Cluster{
		pools:  pools,
		router: sharding.NewRouter(len(pools)),
	}, nil
}

// NewCluster wraps pre-built pools; used by tests.
func NewCluster(pools ...*sqlx.DB) *Cluster {
	return &Cluster{
		pools:  pools,
		router: sharding.NewRouter(len(pools)),
	}
}

// For returns the pool holding the given user's rows.
func (c *Cluster) For(userID uuid.UUID) *sqlx.DB {
	return c.pools[c.router.Shard(userID)]
}

// Default returns shard 0, used for queries with no natural owning user
// (outbox drain, global counts, timeline hydration). Correct by construction
// when N=1. With N>1 outbox rows commit on the writer's shard via For, while
// the drain reads only shard 0, so single-shard is the supported deployment
// for the event pipeline.
func (c *Cluster) Default() *sqlx.DB {
	return c.pools[0]
}

func (c *Cluster) ShardCount() int {
	return len(c.pools)
}

func (c *Cluster) Close() error {
	var firstErr error
	for i, p := range c.pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close shard %d: %w", i, err)
		}
	}
	return firstErr
}
