package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedKV() (*MemoryKV, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	return NewMemoryKV(WithClock(clock.Now)), clock
}

func TestMemoryKV_GetMissing(t *testing.T) {
	kv := NewMemoryKV()
	_, err := kv.Get(context.Background(), "st_memory:nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryKV_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	kv, clock := newClockedKV()

	require.NoError(t, kv.Set(ctx, "st_memory:a", []byte(`{"id":"a"}`), 24*time.Hour))
	require.NoError(t, kv.Set(ctx, "core_memory:b", []byte(`{"id":"b"}`), 0))

	clock.Advance(24*time.Hour - time.Second)
	got, err := kv.Get(ctx, "st_memory:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(got))

	clock.Advance(time.Second)
	_, err = kv.Get(ctx, "st_memory:a")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := kv.Scan(ctx, "st_memory:")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// keys without a ttl never expire
	clock.Advance(365 * 24 * time.Hour)
	_, err = kv.Get(ctx, "core_memory:b")
	assert.NoError(t, err)
}

func TestMemoryKV_ScanInsertionOrder(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	for _, k := range []string{"st_memory:3", "st_memory:1", "core_memory:x", "st_memory:2"} {
		require.NoError(t, kv.Set(ctx, k, []byte(`{}`), 0))
	}
	// overwrite keeps the original position
	require.NoError(t, kv.Set(ctx, "st_memory:3", []byte(`{"v":2}`), 0))

	keys, err := kv.Scan(ctx, "st_memory:")
	require.NoError(t, err)
	assert.Equal(t, []string{"st_memory:3", "st_memory:1", "st_memory:2"}, keys)
}

func TestMemoryKV_Move(t *testing.T) {
	ctx := context.Background()
	kv, clock := newClockedKV()

	require.NoError(t, kv.Set(ctx, "st_memory:a", []byte(`{"memory_type":"short_term"}`), time.Hour))
	require.NoError(t, kv.Move(ctx, "st_memory:a", "core_memory:a", []byte(`{"memory_type":"core"}`)))

	_, err := kv.Get(ctx, "st_memory:a")
	assert.ErrorIs(t, err, ErrNotFound)

	clock.Advance(48 * time.Hour)
	got, err := kv.Get(ctx, "core_memory:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"memory_type":"core"}`, string(got))
}

func TestMemoryKV_Sweep(t *testing.T) {
	ctx := context.Background()
	kv, clock := newClockedKV()

	require.NoError(t, kv.Set(ctx, "st_memory:a", []byte(`{}`), time.Minute))
	require.NoError(t, kv.Set(ctx, "st_memory:b", []byte(`{}`), time.Hour))
	require.NoError(t, kv.Set(ctx, "core_memory:c", []byte(`{}`), 0))

	clock.Advance(2 * time.Minute)
	n, err := kv.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, kv.Len())
}

func TestMemoryKV_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	in := []byte(`{"a":1}`)
	require.NoError(t, kv.Set(ctx, "k", in, 0))
	in[2] = 'b'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	got[2] = 'c'

	again, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again))
}
