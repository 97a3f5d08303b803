package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travelplanner/internal/cache"
	"github.com/neexbeast/travelplanner/internal/geodata"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func sampleFacts() *geodata.CountryFacts {
	return &geodata.CountryFacts{
		Name:      "Netherlands",
		Capital:   "Amsterdam",
		Region:    "Europe",
		Languages: []string{"Dutch"},
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "geodata:facts:netherlands", sampleFacts()))

	var got geodata.CountryFacts
	hit, err := c.Get(ctx, "geodata:facts:netherlands", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "Amsterdam", got.Capital)
	assert.Equal(t, []string{"Dutch"}, got.Languages)
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	var got geodata.CountryFacts
	hit, err := c.Get(context.Background(), "nonexistent", &got)
	require.NoError(t, err)
	assert.False(t, hit, "cache miss should return false, nil")
}

func TestCache_Get_BadJSON(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("broken", "not-json"))

	var got geodata.CountryFacts
	_, err := c.Get(context.Background(), "broken", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sampleFacts()))
	require.NoError(t, c.Delete(ctx, "k"))

	var got geodata.CountryFacts
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry should be gone after delete")
}

func TestCache_Delete_NonExistent(t *testing.T) {
	c, _ := newTestCache(t)
	// Deleting a key that doesn't exist should not error.
	require.NoError(t, c.Delete(context.Background(), "ghost"))
}

func TestCache_Set_NilValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Set(context.Background(), "k", nil))
	assert.False(t, mr.Exists("k"))
}

func TestCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sampleFacts()))

	mr.FastForward(2 * time.Hour)

	var got geodata.CountryFacts
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry should be expired after TTL")
}

func TestCache_CustomTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewCacheWithTTL(client, 10*time.Minute)
	require.NoError(t, c.Set(context.Background(), "k", sampleFacts()))
	assert.Equal(t, 10*time.Minute, mr.TTL("k"))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localhost:19999")
}

func TestConnect_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()
}

func TestPinger(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := cache.Pinger{Client: client}
	require.NoError(t, p.Ping(context.Background()))

	mr.Close()
	require.Error(t, p.Ping(context.Background()))
}
