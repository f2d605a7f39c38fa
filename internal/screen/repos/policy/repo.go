// Package policy holds the enablement flag and the blocking schedule. Reads
// are served from memory; writes go to the backing store first and refresh
// the cache only when the write succeeded.
package policy

import (
	"sync"

	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/domain"
	"github.com/haukened/ringguard/internal/screen/repos/state"
)

// Repository is the Policy State Store.
type Repository struct {
	mu     sync.RWMutex
	store  state.PolicyStore
	logger log.Logger

	loaded      bool
	enabled     bool
	schedule    domain.Schedule
	hasSchedule bool
	scheduleErr error
}

// New returns a Repository backed by store. The cache is filled lazily on the
// first read.
func New(store state.PolicyStore, logger log.Logger) *Repository {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Repository{store: store, logger: logger}
}

// load fills the cache. Caller must hold mu for writing.
func (r *Repository) load() error {
	if r.loaded {
		return nil
	}
	enabled, err := r.store.LoadEnabled()
	if err != nil {
		return err
	}
	sched, ok, err := r.store.LoadSchedule()
	r.enabled = enabled
	r.schedule = sched
	r.hasSchedule = ok
	r.scheduleErr = err
	r.loaded = true
	if err != nil {
		r.logger.Warn(map[string]any{"error": err}, "stored schedule is unreadable")
	}
	return nil
}

// ensureLoaded takes the write lock only when the cache is cold.
func (r *Repository) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// IsEnabled reports the persisted flag. Defaults to false.
func (r *Repository) IsEnabled() (bool, error) {
	if err := r.ensureLoaded(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled, nil
}

// SetEnabled persists the flag.
func (r *Repository) SetEnabled(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	if err := r.store.SaveEnabled(enabled); err != nil {
		return err
	}
	r.enabled = enabled
	r.logger.Info(map[string]any{"enabled": enabled}, "blocking state changed")
	return nil
}

// GetSchedule returns the stored schedule. ok is false when none was ever
// stored; callers then use domain.DefaultSchedule. A stored but unreadable
// schedule is reported as an error wrapping domain.ErrInvalidSchedule.
func (r *Repository) GetSchedule() (domain.Schedule, bool, error) {
	if err := r.ensureLoaded(); err != nil {
		return domain.Schedule{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.scheduleErr != nil {
		return domain.Schedule{}, true, r.scheduleErr
	}
	return r.schedule, r.hasSchedule, nil
}

// EffectiveSchedule returns the stored schedule, or the default when absent.
func (r *Repository) EffectiveSchedule() (domain.Schedule, error) {
	s, ok, err := r.GetSchedule()
	if err != nil {
		return domain.Schedule{}, err
	}
	if !ok {
		return domain.DefaultSchedule(), nil
	}
	return s, nil
}

// SetSchedule validates and replaces the schedule wholesale.
func (r *Repository) SetSchedule(s domain.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	return r.saveSchedule(s)
}

// saveSchedule persists s and refreshes the cache. Caller must hold mu for
// writing.
func (r *Repository) saveSchedule(s domain.Schedule) error {
	if err := r.store.SaveSchedule(s); err != nil {
		return err
	}
	r.schedule = s
	r.hasSchedule = true
	r.scheduleErr = nil
	r.logger.Info(map[string]any{"schedule": s.String()}, "schedule replaced")
	return nil
}

// RemoveDay drops d from the effective schedule and stores the result.
// Removing the last active day fails with domain.ErrNoActiveDays. An
// unreadable stored schedule is replaced starting from the default.
func (r *Repository) RemoveDay(d domain.Day) (domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return domain.Schedule{}, err
	}
	current := r.schedule
	if !r.hasSchedule || r.scheduleErr != nil {
		current = domain.DefaultSchedule()
	}
	next, err := current.WithoutDay(d)
	if err != nil {
		return current, err
	}
	if err := r.saveSchedule(next); err != nil {
		return current, err
	}
	return next, nil
}
