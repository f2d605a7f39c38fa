package lru

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	known map[string]bool
	err   error
	calls int
}

func (d *countingDirectory) IsKnownContact(_ context.Context, number string) (bool, error) {
	d.calls++
	if d.err != nil {
		return false, d.err
	}
	return d.known[number], nil
}

func TestCachedDirectory_HitMiss(t *testing.T) {
	inner := &countingDirectory{known: map[string]bool{"555-123-4567": true}}
	dir, err := New(inner, 4)
	require.NoError(t, err)
	cd := dir.(*CachedDirectory)
	ctx := context.Background()

	known, err := cd.IsKnownContact(ctx, "555-123-4567")
	require.NoError(t, err)
	assert.True(t, known)

	// a differently formatted variant shares the normalized key
	known, err = cd.IsKnownContact(ctx, "(555) 123-4567")
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, 1, inner.calls)

	st := cd.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, 1, st.Size)
}

func TestCachedDirectory_NegativeResultsCached(t *testing.T) {
	inner := &countingDirectory{known: map[string]bool{}}
	dir, err := New(inner, 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		known, err := dir.IsKnownContact(context.Background(), "555-0100")
		require.NoError(t, err)
		assert.False(t, known)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedDirectory_ErrorsNotCached(t *testing.T) {
	inner := &countingDirectory{err: errors.New("permission denied")}
	dir, err := New(inner, 4)
	require.NoError(t, err)

	_, err = dir.IsKnownContact(context.Background(), "555-0100")
	assert.Error(t, err)
	_, err = dir.IsKnownContact(context.Background(), "555-0100")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, dir.(*CachedDirectory).Len())
}

func TestCachedDirectory_EvictionAndPurge(t *testing.T) {
	inner := &countingDirectory{known: map[string]bool{}}
	dir, err := New(inner, 2)
	require.NoError(t, err)
	cd := dir.(*CachedDirectory)
	ctx := context.Background()

	for _, n := range []string{"5550001", "5550002", "5550003"} {
		_, err := cd.IsKnownContact(ctx, n)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cd.Len())
	assert.Equal(t, uint64(1), cd.Stats().Evictions)

	cd.Purge()
	assert.Zero(t, cd.Len())
	assert.Equal(t, uint64(3), cd.Stats().Evictions, "purge evictions are counted")
}

func TestNew_DisabledReturnsInner(t *testing.T) {
	inner := &countingDirectory{}
	dir, err := New(inner, 0)
	require.NoError(t, err)
	assert.Same(t, inner, dir)
}

func TestCachedDirectory_EmptyNumberBypassesCache(t *testing.T) {
	inner := &countingDirectory{known: map[string]bool{}}
	dir, err := New(inner, 2)
	require.NoError(t, err)
	_, _ = dir.IsKnownContact(context.Background(), "")
	_, _ = dir.IsKnownContact(context.Background(), "")
	assert.Equal(t, 2, inner.calls)
}
