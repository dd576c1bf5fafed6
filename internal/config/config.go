package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string

	ServerPort string

	Timeline TimelineConfig
	Outbox   OutboxConfig
	Stream   StreamConfig
	Worker   WorkerConfig
	Sharding ShardingConfig
}

type TimelineConfig struct {
	MaxSize                    int
	DefaultPageSize            int
	MaxPageSize                int
	CelebrityFollowerThreshold int
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
	SweepEvery   time.Duration
	OpTimeout    time.Duration
}

type StreamConfig struct {
	Topic      string
	Partitions int
}

type WorkerConfig struct {
	BatchSize    int64
	BlockTimeout time.Duration
}

// ShardingConfig routes users across relational replicas. When disabled (or
// when DSNs has a single entry) every user maps to shard 0 and the DB_*
// settings describe the only pool.
type ShardingConfig struct {
	Enabled bool
	DSNs    []string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		Timeline: TimelineConfig{
			MaxSize:                    getEnvInt("TIMELINE_MAX_SIZE", 800),
			DefaultPageSize:            getEnvInt("TIMELINE_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:                getEnvInt("TIMELINE_MAX_PAGE_SIZE", 100),
			CelebrityFollowerThreshold: getEnvInt("CELEBRITY_FOLLOWER_THRESHOLD", 10000),
		},

		Outbox: OutboxConfig{
			PollInterval: time.Duration(getEnvInt("OUTBOX_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 100),
			Retention:    time.Duration(getEnvInt("OUTBOX_RETENTION_HOURS", 24)) * time.Hour,
			SweepEvery:   time.Hour,
			OpTimeout:    30 * time.Second,
		},

		Stream: StreamConfig{
			Topic:      getEnv("STREAM_TOPIC", "timeline-events"),
			Partitions: getEnvInt("STREAM_PARTITIONS", 4),
		},

		Worker: WorkerConfig{
			BatchSize:    int64(getEnvInt("WORKER_BATCH_SIZE", 10)),
			BlockTimeout: time.Duration(getEnvInt("WORKER_BLOCK_TIMEOUT_MS", 5000)) * time.Millisecond,
		},

		Sharding: ShardingConfig{
			Enabled: getEnvBool("SHARDING_ENABLED", false),
			DSNs:    getEnvList("SHARD_DSNS"),
		},
	}

	return cfg, nil
}

// DSN assembles the single-shard connection string from the DB_* settings.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSSLMode
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
