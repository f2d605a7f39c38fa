package bridge

import (
	"context"
	"sync"

	"github.com/haukened/ringguard/internal/screen/domain"
)

// StaticPlatform is a Platform whose role state is fixed by configuration.
// A request against an available role is recorded as pending until
// ResolveScreeningRole answers it.
type StaticPlatform struct {
	mu      sync.Mutex
	state   domain.RoleState
	pending bool
}

// NewStaticPlatform returns a platform starting in state.
func NewStaticPlatform(state domain.RoleState) *StaticPlatform {
	return &StaticPlatform{state: state}
}

// ScreeningRole returns the current role state.
func (p *StaticPlatform) ScreeningRole(context.Context) domain.RoleState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RequestScreeningRole implements Platform.
func (p *StaticPlatform) RequestScreeningRole(_ context.Context, hasContext bool) (domain.RoleStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.state == domain.RoleStateUnsupported:
		return domain.RoleUnsupported, nil
	case !hasContext:
		return 0, domain.ErrNoContext
	case p.state == domain.RoleStateHeld:
		return domain.RoleAlreadyHeld, nil
	case p.state == domain.RoleStateUnavailable:
		return domain.RoleUnavailable, nil
	default:
		p.pending = true
		return domain.RoleRequested, nil
	}
}

// PendingScreeningRole reports whether a request is waiting for the user's answer.
func (p *StaticPlatform) PendingScreeningRole(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// ResolveScreeningRole completes a pending request. A granted request moves
// the role to held; a denied one leaves the state unchanged. It reports false
// when there was nothing to resolve.
func (p *StaticPlatform) ResolveScreeningRole(_ context.Context, granted bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pending {
		return false
	}
	p.pending = false
	if granted {
		p.state = domain.RoleStateHeld
	}
	return true
}

var _ Platform = (*StaticPlatform)(nil)
