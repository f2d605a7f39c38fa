// Package allowlist is the Allow-List Store: numbers exempted from blocking,
// keyed by phone.Normalize on both the write and the lookup path.
package allowlist

import (
	"sort"
	"sync"

	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/common/phone"
	"github.com/haukened/ringguard/internal/screen/repos/state"
)

// DefaultFPRate is the Bloom false-positive target used when none is configured.
const DefaultFPRate = 0.01

// Repository serves membership from an in-memory set fronted by a Bloom
// filter. Mutations persist first, then swap in a rebuilt set and filter.
type Repository struct {
	mu      sync.RWMutex
	store   state.AllowListStore
	factory BloomFactory
	fpRate  float64
	logger  log.Logger

	loaded bool
	set    map[string]struct{}
	bloom  BloomFilter
}

// Options configures a Repository. Factory may be nil, in which case lookups
// go straight to the set.
type Options struct {
	Store   state.AllowListStore
	Factory BloomFactory
	FPRate  float64
	Logger  log.Logger
}

// New constructs a Repository. The set is loaded lazily on first use.
func New(opts Options) *Repository {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	fp := opts.FPRate
	if !(fp > 0 && fp < 1) {
		fp = DefaultFPRate
	}
	return &Repository{store: opts.Store, factory: opts.Factory, fpRate: fp, logger: logger}
}

// load reads the persisted set. Caller must hold mu for writing.
func (r *Repository) load() error {
	if r.loaded {
		return nil
	}
	numbers, err := r.store.Allowed()
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		set[n] = struct{}{}
	}
	r.swap(set)
	r.loaded = true
	return nil
}

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

// swap installs set and a Bloom filter built from it. Caller must hold mu for writing.
func (r *Repository) swap(set map[string]struct{}) {
	r.set = set
	if r.factory == nil {
		r.bloom = nil
		return
	}
	bf := r.factory.New(uint64(len(set)), r.fpRate)
	for n := range set {
		bf.Add([]byte(n))
	}
	r.bloom = bf
}

// Add inserts numbers (set union). Numbers are normalized first; ones that
// normalize to nothing are ignored.
func (r *Repository) Add(numbers []string) error {
	keys := phone.NormalizeAll(numbers)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.store.AddAllowed(keys); err != nil {
		return err
	}
	next := make(map[string]struct{}, len(r.set)+len(keys))
	for n := range r.set {
		next[n] = struct{}{}
	}
	for _, n := range keys {
		next[n] = struct{}{}
	}
	r.swap(next)
	r.logger.Info(map[string]any{"added": len(keys), "size": len(next)}, "allow-list updated")
	return nil
}

// Remove deletes numbers (set difference) after normalization.
func (r *Repository) Remove(numbers []string) error {
	keys := phone.NormalizeAll(numbers)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.store.RemoveAllowed(keys); err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(keys))
	for _, n := range keys {
		drop[n] = struct{}{}
	}
	next := make(map[string]struct{}, len(r.set))
	for n := range r.set {
		if _, ok := drop[n]; !ok {
			next[n] = struct{}{}
		}
	}
	r.swap(next)
	r.logger.Info(map[string]any{"removed": len(keys), "size": len(next)}, "allow-list updated")
	return nil
}

// List returns the normalized numbers in ascending order.
func (r *Repository) List() ([]string, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]string, 0, len(r.set))
	for n := range r.set {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

// Contains reports whether the already-normalized number is allow-listed.
// The Bloom filter answers definite negatives; maybes are confirmed by the set.
func (r *Repository) Contains(normalized string) (bool, error) {
	if normalized == "" {
		return false, nil
	}
	if err := r.ensureLoaded(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.bloom != nil && !r.bloom.MightContain([]byte(normalized)) {
		return false, nil
	}
	_, ok := r.set[normalized]
	return ok, nil
}

// ContainsNumber normalizes raw and checks membership.
func (r *Repository) ContainsNumber(raw string) (bool, error) {
	return r.Contains(phone.Normalize(raw))
}
