package kvstore

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestRedisStore_Integration(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	host := getEnv("REDIS_HOST", "localhost")
	port := getEnv("REDIS_PORT", "6379")
	pass := getEnv("REDIS_PASSWORD", "")

	rdb, err := NewRedisClient(host, port, pass, 1)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	require.NoError(t, rdb.FlushDB(ctx).Err(), "Failed to flush test DB")

	store := NewRedisStore(rdb)

	t.Run("Success: set then get round trip", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "ritmo:test:habits", `{"version":"1.0"}`))

		val, err := store.Get(ctx, "ritmo:test:habits")
		assert.NoError(t, err)
		assert.Equal(t, `{"version":"1.0"}`, val)
	})

	t.Run("Success: values persist without expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "ritmo:test:ttl", "durable"))

		ttl, err := rdb.TTL(ctx, "ritmo:test:ttl").Result()
		require.NoError(t, err)
		assert.Less(t, ttl.Seconds(), 0.0, "Durable keys must not carry a TTL")
	})

	t.Run("Error: missing key maps to ErrKeyNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "ritmo:test:missing")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Success: delete removes the key", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "ritmo:test:gone", "x"))
		require.NoError(t, store.Delete(ctx, "ritmo:test:gone"))

		_, err := store.Get(ctx, "ritmo:test:gone")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})
}
