package rejectionlog

import (
	"sync"

	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/common/phone"
	"github.com/haukened/ringguard/internal/screen/domain"
	"github.com/haukened/ringguard/internal/screen/repos/state"
)

// Repository is the Rejection Log Store. Mutations are serialized on mu so the
// cached counter always mirrors the persisted one.
type Repository struct {
	mu     sync.Mutex
	store  state.RejectionStore
	logger log.Logger

	count      uint64
	countValid bool
}

// New returns a Repository backed by store.
func New(store state.RejectionStore, logger log.Logger) *Repository {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Repository{store: store, logger: logger}
}

// Append stores one entry and returns the new counter value.
func (r *Repository) Append(e domain.RejectionEntry) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, err := r.store.AppendRejection(e)
	if err != nil {
		r.countValid = false
		return 0, err
	}
	r.count, r.countValid = count, true
	return count, nil
}

// List returns every entry in storage order. Consumers sort for display.
func (r *Repository) List() ([]domain.RejectionEntry, error) {
	return r.store.Rejections()
}

// Latest returns every entry, newest first.
func (r *Repository) Latest() ([]domain.RejectionEntry, error) {
	entries, err := r.store.Rejections()
	if err != nil {
		return nil, err
	}
	domain.SortLatestFirst(entries)
	return entries, nil
}

// Clear empties the log and resets the counter.
func (r *Repository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.ClearRejections(); err != nil {
		r.countValid = false
		return err
	}
	r.count, r.countValid = 0, true
	r.logger.Info(nil, "rejection log cleared")
	return nil
}

// RemoveWhere deletes every entry whose normalized number is accepted by match.
// The counter is recomputed from the remaining entries.
func (r *Repository) RemoveWhere(match func(normalized string) bool) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	remaining, err := r.store.RemoveRejections(func(e domain.RejectionEntry) bool {
		return match(e.Normalized())
	})
	if err != nil {
		r.countValid = false
		return 0, err
	}
	r.count, r.countValid = remaining, true
	return remaining, nil
}

// RemoveNumbers deletes every entry matching any of numbers after
// normalization, so differently formatted variants are removed together.
func (r *Repository) RemoveNumbers(numbers []string) (uint64, error) {
	targets := phone.Set(numbers)
	remaining, err := r.RemoveWhere(func(n string) bool {
		_, ok := targets[n]
		return ok
	})
	if err == nil {
		r.logger.Info(map[string]any{"numbers": len(targets), "remaining": remaining}, "rejection entries removed")
	}
	return remaining, err
}

// Count returns the number of logged rejections.
func (r *Repository) Count() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countValid {
		return r.count, nil
	}
	n, err := r.store.RejectionCount()
	if err != nil {
		return 0, err
	}
	r.count, r.countValid = n, true
	return n, nil
}

// Groups returns the grouped presentation view of the log.
func (r *Repository) Groups() ([]domain.RejectionGroup, error) {
	entries, err := r.store.Rejections()
	if err != nil {
		return nil, err
	}
	return domain.GroupByNumber(entries), nil
}

// Stats summarizes the log.
func (r *Repository) Stats() (domain.LogStats, error) {
	entries, err := r.store.Rejections()
	if err != nil {
		return domain.LogStats{}, err
	}
	return domain.Summarize(entries), nil
}
