package bridge

import (
	"context"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// PolicyStore is the read/write view of the Policy State Store used by the UI.
type PolicyStore interface {
	IsEnabled() (bool, error)
	SetEnabled(enabled bool) error
	GetSchedule() (domain.Schedule, bool, error)
	SetSchedule(s domain.Schedule) error
	RemoveDay(d domain.Day) (domain.Schedule, error)
}

// RejectionLog is the UI view of the Rejection Log Store.
type RejectionLog interface {
	Latest() ([]domain.RejectionEntry, error)
	Clear() error
	RemoveNumbers(numbers []string) (uint64, error)
	Count() (uint64, error)
	Groups() ([]domain.RejectionGroup, error)
	Stats() (domain.LogStats, error)
}

// AllowList is the UI view of the Allow-List Store.
type AllowList interface {
	Add(numbers []string) error
	Remove(numbers []string) error
	List() ([]string, error)
}

// Platform is the host's call-screening capability.
type Platform interface {
	// ScreeningRole reports the current state of the call-screening role.
	ScreeningRole(ctx context.Context) domain.RoleState

	// RequestScreeningRole asks the host to grant the role. hasContext is false
	// when no foreground surface exists to host the prompt; the request then
	// fails with domain.ErrNoContext. A granted request reports RoleRequested
	// and the grant itself becomes visible through ScreeningRole later.
	RequestScreeningRole(ctx context.Context, hasContext bool) (domain.RoleStatus, error)

	// PendingScreeningRole reports whether a request awaits the user's answer.
	PendingScreeningRole(ctx context.Context) bool

	// ResolveScreeningRole delivers the user's answer to a pending request and
	// reports false when none was pending.
	ResolveScreeningRole(ctx context.Context, granted bool) bool
}

// LogSizeObserver is told the rejection log size after UI mutations.
type LogSizeObserver interface {
	SetRejectionLogSize(n uint64)
}
