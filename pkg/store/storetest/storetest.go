// Package storetest holds behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/listings/pkg/store"
)

// Harness builds a fresh store and moves its clock forward.
type Harness struct {
	New     func(t *testing.T) store.Store
	Advance func(d time.Duration)
}

// Run exercises the store contract against h.
func Run(t *testing.T, h Harness) {
	t.Run("SetGet", func(t *testing.T) {
		s := h.New(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "allproperties", []byte(`[1,2]`), time.Hour))

		v, ok, err := s.Get(ctx, "allproperties")
		require.NoError(t, err)
		require.True(t, ok, "expected hit")
		assert.Equal(t, `[1,2]`, string(v))

		_, ok, err = s.Get(ctx, "other")
		require.NoError(t, err)
		assert.False(t, ok, "expected miss for unknown key")
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := h.New(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "k", []byte("a"), time.Hour))
		require.NoError(t, s.Set(ctx, "k", []byte("b"), time.Hour))
		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "b", string(v))
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		s := h.New(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "short", []byte("x"), 50*time.Millisecond))
		require.NoError(t, s.Set(ctx, "long", []byte("y"), time.Hour))
		h.Advance(200 * time.Millisecond)

		_, ok, err := s.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok, "expected miss after TTL expiration")

		_, ok, err = s.Get(ctx, "long")
		require.NoError(t, err)
		assert.True(t, ok, "longer TTL must survive")
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := h.New(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Hour))

		existed, err := s.Delete(ctx, "k")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = s.Delete(ctx, "k")
		require.NoError(t, err)
		assert.False(t, existed, "deleting an absent key is a no-op")

		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("StatsAreCumulative", func(t *testing.T) {
		s := h.New(t)
		ctx := context.Background()

		before, err := s.Stats(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "h1", []byte("data"), time.Hour))
		_, _, _ = s.Get(ctx, "h1") // hit
		_, _, _ = s.Get(ctx, "h1") // hit
		_, _, _ = s.Get(ctx, "h2") // miss

		after, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), after.Hits-before.Hits)
		assert.Equal(t, int64(1), after.Misses-before.Misses)
	})
}
