package rejectionlog

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ringguard/internal/screen/domain"
	"github.com/haukened/ringguard/internal/screen/repos/state/bolt"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	st, err := bolt.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, nil)
}

func TestRepository_AppendAndCount(t *testing.T) {
	r := newRepo(t)

	n, err := r.Append(domain.RejectionEntry{Number: "555-0100", Timestamp: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestRepository_LatestFirst(t *testing.T) {
	r := newRepo(t)
	for _, ts := range []int64{20, 10, 30} {
		_, err := r.Append(domain.RejectionEntry{Number: "555-0100", Timestamp: ts})
		require.NoError(t, err)
	}

	stored, err := r.List()
	require.NoError(t, err)
	assert.Equal(t, int64(20), stored[0].Timestamp, "storage order is insertion order")

	latest, err := r.Latest()
	require.NoError(t, err)
	assert.Equal(t, []int64{30, 20, 10}, []int64{latest[0].Timestamp, latest[1].Timestamp, latest[2].Timestamp})
}

func TestRepository_ClearResetsCounter(t *testing.T) {
	r := newRepo(t)
	_, err := r.Append(domain.RejectionEntry{Number: "555-0100", Timestamp: 1})
	require.NoError(t, err)

	require.NoError(t, r.Clear())

	entries, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
	count, err := r.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_RemoveNumbersAcrossFormats(t *testing.T) {
	r := newRepo(t)
	for i, n := range []string{"555-123-4567", "(555) 123-4567", "555-0100", "+1 555 123 4567"} {
		_, err := r.Append(domain.RejectionEntry{Number: n, Timestamp: int64(i)})
		require.NoError(t, err)
	}

	remaining, err := r.RemoveNumbers([]string{"5551234567"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), remaining)

	entries, err := r.List()
	require.NoError(t, err)
	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(entries)), count)
	assert.Equal(t, "555-0100", entries[0].Number)
}

func TestRepository_GroupsAndStats(t *testing.T) {
	r := newRepo(t)
	for i, n := range []string{"555-123-4567", "(555) 123-4567"} {
		_, err := r.Append(domain.RejectionEntry{Number: n, Timestamp: int64(100 + i)})
		require.NoError(t, err)
	}

	groups, err := r.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "5551234567", groups[0].Normalized)

	st, err := r.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.UniqueNumbers)
}

func TestRepository_ConcurrentAppends(t *testing.T) {
	r := newRepo(t)
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Append(domain.RejectionEntry{Number: "555-0100", Timestamp: int64(i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := r.List()
	require.NoError(t, err)
	count, err := r.Count()
	require.NoError(t, err)
	assert.Len(t, entries, 40)
	assert.Equal(t, uint64(40), count)
}

type failingStore struct {
	count uint64
	calls int
}

func (f *failingStore) AppendRejection(domain.RejectionEntry) (uint64, error) {
	return 0, errors.New("write failed")
}
func (f *failingStore) Rejections() ([]domain.RejectionEntry, error) {
	return nil, nil
}
func (f *failingStore) ClearRejections() error {
	return nil
}
func (f *failingStore) RemoveRejections(func(domain.RejectionEntry) bool) (uint64, error) {
	return 0, nil
}
func (f *failingStore) RejectionCount() (uint64, error) {
	f.calls++
	return f.count, nil
}

func TestRepository_FailedAppendInvalidatesCachedCount(t *testing.T) {
	st := &failingStore{count: 5}
	r := New(st, nil)

	_, err := r.Append(domain.RejectionEntry{Number: "555-0100"})
	assert.Error(t, err)

	count, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
	assert.Equal(t, 1, st.calls, "count re-read from the store")
}
