package cachestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atlas-desktop/midasgw/internal/cachestore"
)

func TestMemoryStoreGetMiss(t *testing.T) {
	s := cachestore.NewMemoryStore()
	v, ok, err := s.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := cachestore.NewMemoryStore()
	ctx := context.Background()
	assert.NoError(t, s.Set(ctx, "k", []byte("v"), 0))

	v, ok, err := s.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	ttl, err := s.TTL(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, -1, ttl)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := cachestore.NewMemoryStore()
	ctx := context.Background()
	assert.NoError(t, s.Set(ctx, "k2", []byte("v2"), 1))
	time.Sleep(1100 * time.Millisecond)

	_, ok, err := s.Get(ctx, "k2")
	assert.NoError(t, err)
	assert.False(t, ok)

	ttl, err := s.TTL(ctx, "missing")
	assert.NoError(t, err)
	assert.Equal(t, -2, ttl)
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	s := cachestore.NewMemoryStore()
	ctx := context.Background()
	assert.NoError(t, s.Set(ctx, "prefix:a", []byte("1"), 0))
	assert.NoError(t, s.Set(ctx, "prefix:b", []byte("2"), 0))
	assert.NoError(t, s.Set(ctx, "other:c", []byte("3"), 0))

	assert.NoError(t, s.Delete(ctx, "prefix:a"))
	_, ok, _ := s.Get(ctx, "prefix:a")
	assert.False(t, ok)

	keys, err := s.Keys(ctx, "prefix:")
	assert.NoError(t, err)
	assert.Len(t, keys, 1)

	assert.NoError(t, s.Clear(ctx, "prefix:"))
	keys, _ = s.Keys(ctx, "prefix:")
	assert.Empty(t, keys)

	_, ok, _ = s.Get(ctx, "other:c")
	assert.True(t, ok)
}
