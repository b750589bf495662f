package cache

import (
	"context"
	"testing"
	"time"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_EncodeDecode(t *testing.T) {
	entries := []catalog.CatalogEntry{
		{ProductCode: "A1", ProductName: "Saree", Cost: decimal.RequireFromString("500"), Price: decimal.RequireFromString("800")},
		{ProductCode: "b2", ProductName: "Kurta", Cost: decimal.RequireFromString("200.50"), Price: decimal.RequireFromString("350.25")},
	}

	savedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.FixedZone("IST", 19800))
	data, err := encodeSnapshot(entries, savedAt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)

	got, err := decodeSnapshot(data)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "A1", got.Entries[0].ProductCode)
	assert.True(t, entries[1].Cost.Equal(got.Entries[1].Cost))
	assert.True(t, entries[1].Price.Equal(got.Entries[1].Price))
	assert.True(t, savedAt.Equal(got.SavedAt), "save time survives the round trip")
	assert.Equal(t, 5*time.Minute, got.Age(savedAt.Add(5*time.Minute)))
}

func TestSnapshot_DecodeOtherVersionIsMiss(t *testing.T) {
	got, err := decodeSnapshot([]byte(`{"version":0,"entries":[{"code":"A1"}]}`))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshot_DecodeGarbage(t *testing.T) {
	_, err := decodeSnapshot([]byte(`not json`))
	assert.Error(t, err)
}

func TestRedisCatalogSnapshot_Options(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	s := NewRedisCatalogSnapshotWithClient(client, WithSnapshotKey("till2:catalog"))
	assert.Equal(t, "till2:catalog", s.key)
	assert.Same(t, client, s.Client())
	assert.NoError(t, s.Close(), "borrowed clients are left open")

	s = NewRedisCatalogSnapshotWithClient(client, WithSnapshotKey(""))
	assert.Equal(t, DefaultSnapshotKey, s.key)
}

func TestRedisCatalogSnapshot_UnreachableServerErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	s := NewRedisCatalogSnapshotWithClient(client)
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.Error(t, err)
	assert.Error(t, s.Save(ctx, nil, time.Minute))
	assert.Error(t, s.Invalidate(ctx))
}

func TestSnapshotStoreFactory(t *testing.T) {
	t.Run("disabled redis yields no store", func(t *testing.T) {
		store, closer, err := NewSnapshotStoreFactory(config.RedisConfig{Enabled: false}).CreateStore()
		require.NoError(t, err)
		assert.Nil(t, store)
		assert.NoError(t, closer())
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		store, closer, err := NewSnapshotStoreFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}).CreateStore()
		require.NoError(t, err)
		assert.Nil(t, store)
		assert.NotNil(t, closer)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		_, _, err := NewSnapshotStoreFactory(
			config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithFallback(false),
		).CreateStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})
}
