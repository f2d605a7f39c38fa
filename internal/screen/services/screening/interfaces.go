package screening

import (
	"context"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// PolicyReader exposes the enablement flag and the schedule in force.
type PolicyReader interface {
	IsEnabled() (bool, error)
	EffectiveSchedule() (domain.Schedule, error)
}

// AllowList answers membership for a raw dialed number.
type AllowList interface {
	ContainsNumber(raw string) (bool, error)
}

// Directory resolves whether a number belongs to a known contact.
type Directory interface {
	IsKnownContact(ctx context.Context, number string) (bool, error)
}

// Platform reports the state of the host call-screening capability.
type Platform interface {
	ScreeningRole(ctx context.Context) domain.RoleState
}

// RejectionLog persists one entry per blocked call and returns the new count.
type RejectionLog interface {
	Append(e domain.RejectionEntry) (uint64, error)
}

// Recorder receives one observation per decision. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordDecision(d domain.ScreenDecision)
	SetRejectionLogSize(n uint64)
}

// Screener is the synchronous entry point used by the call-interception layer.
type Screener interface {
	Screen(ctx context.Context, number string) domain.ScreenDecision
}
