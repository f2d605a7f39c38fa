package contacts

import (
	"context"
	"errors"
	"sync"

	logpkg "github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/common/phone"
	"github.com/haukened/ringguard/internal/screen/domain"
)

// FileDirectory is a Directory built from the contact files in one directory.
// Reload swaps the whole index at once, so lookups never observe a partial load.
type FileDirectory struct {
	mu     sync.RWMutex
	dir    string
	logger logpkg.Logger
	index  map[string]string // normalized number -> contact name
}

// NewFileDirectory loads dir and returns the resulting directory.
func NewFileDirectory(dir string, logger logpkg.Logger) (*FileDirectory, error) {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	d := &FileDirectory{dir: dir, logger: logger}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewStaticDirectory indexes contacts directly, without touching the filesystem.
func NewStaticDirectory(cs []domain.Contact) *FileDirectory {
	return &FileDirectory{logger: logpkg.NewNoopLogger(), index: buildIndex(cs)}
}

func buildIndex(cs []domain.Contact) map[string]string {
	index := make(map[string]string)
	for _, c := range cs {
		for _, n := range c.Numbers {
			if key := phone.Normalize(n); key != "" {
				if _, dup := index[key]; !dup {
					index[key] = c.Name
				}
			}
		}
	}
	return index
}

// Reload re-reads the directory. On error the previous index stays in place.
func (d *FileDirectory) Reload() error {
	cs, err := LoadDirectory(d.dir, d.logger)
	if err != nil {
		return err
	}
	index := buildIndex(cs)
	d.mu.Lock()
	d.index = index
	d.mu.Unlock()
	d.logger.Info(map[string]any{"dir": d.dir, "contacts": len(cs), "numbers": len(index)}, "contact directory loaded")
	return nil
}

// IsKnownContact reports whether number matches any contact after normalization.
func (d *FileDirectory) IsKnownContact(ctx context.Context, number string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	name, ok := d.Name(number)
	if ok {
		d.logger.Debug(map[string]any{"contact": name}, "number matches contact")
	}
	return ok, nil
}

// Name returns the contact name registered for number.
func (d *FileDirectory) Name(number string) (string, bool) {
	key := phone.Normalize(number)
	if key == "" {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.index[key]
	return name, ok
}

// Len returns the number of indexed numbers.
func (d *FileDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.index)
}

// ErrDirectoryUnavailable is returned by an Unavailable directory with no Err.
var ErrDirectoryUnavailable = errors.New("contact directory unavailable")

// Unavailable is a Directory whose every lookup fails with Err, or with
// ErrDirectoryUnavailable when Err is nil. It stands in when the real
// directory could not be loaded.
type Unavailable struct {
	Err error
}

func (u Unavailable) IsKnownContact(context.Context, string) (bool, error) {
	if u.Err == nil {
		return false, ErrDirectoryUnavailable
	}
	return false, u.Err
}

var (
	_ Directory = (*FileDirectory)(nil)
	_ Directory = Unavailable{}
)
