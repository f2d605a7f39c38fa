// Package state defines the persistence contracts behind the policy,
// rejection log and allow-list repositories. Implementations live in
// subpackages (bolt).
package state

import "github.com/haukened/ringguard/internal/screen/domain"

// PolicyStore persists the enablement flag and the schedule.
// LoadSchedule reports ok=false when no schedule has ever been stored; a stored
// record that cannot be decoded is returned as an error wrapping
// domain.ErrInvalidSchedule.
type PolicyStore interface {
	LoadEnabled() (bool, error)
	SaveEnabled(enabled bool) error
	LoadSchedule() (s domain.Schedule, ok bool, err error)
	SaveSchedule(s domain.Schedule) error
}

// RejectionStore persists the rejection log together with its counter.
// Every mutation keeps the counter equal to the number of stored entries.
type RejectionStore interface {
	// AppendRejection stores e and increments the counter in one transaction.
	AppendRejection(e domain.RejectionEntry) (count uint64, err error)
	// Rejections returns entries in insertion order.
	Rejections() ([]domain.RejectionEntry, error)
	// ClearRejections removes every entry and resets the counter to zero.
	ClearRejections() error
	// RemoveRejections deletes entries for which match returns true and
	// recomputes the counter from what remains.
	RemoveRejections(match func(domain.RejectionEntry) bool) (count uint64, err error)
	// RejectionCount returns the persisted counter.
	RejectionCount() (uint64, error)
}

// AllowListStore persists normalized allow-listed numbers as a set.
type AllowListStore interface {
	AddAllowed(normalized []string) error
	RemoveAllowed(normalized []string) error
	Allowed() ([]string, error)
}

// Stats captures high-level counts for the persistent store.
type Stats struct {
	Rejections uint64 // entries in the rejection log bucket
	Counter    uint64 // persisted rejection counter
	Allowed    uint64 // allow-list size
	Repaired   uint64 // undecodable log entries dropped when the store was opened
}

// Store is the full persistence surface opened once per process.
type Store interface {
	PolicyStore
	RejectionStore
	AllowListStore
	Stats() Stats
	Close() error
}
