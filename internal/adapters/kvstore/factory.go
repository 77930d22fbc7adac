package kvstore

import (
	"context"
	"fmt"
	"log"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

const (
	EngineRedis    = "redis"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

// Config carries the connection settings for the configurable storage
// engines. Only the fields for the selected engine are read.
type Config struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

// NewByEngine builds the key-value store named by engine. An empty
// engine falls back to the in-memory store so the server can run
// without external services.
func NewByEngine(ctx context.Context, engine string, cfg Config) (domain.KeyValueStore, error) {
	switch engine {
	case EngineRedis:
		rdb, err := NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		log.Printf("[STORE] Using redis engine at %s:%s", cfg.RedisHost, cfg.RedisPort)
		return NewRedisStore(rdb), nil

	case EnginePostgres:
		db, err := NewPostgresConnection(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		log.Println("[STORE] Using postgres engine")
		return store, nil

	case EngineMemory, "":
		log.Println("[STORE] Using in-memory engine (data will not survive restarts)")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown storage engine %q", engine)
	}
}
