package domain

import "fmt"

// RoleStatus is the outcome of asking the platform for the call-screening role.
type RoleStatus uint8

const (
	// RoleRequested means the platform prompt was shown; the grant arrives later.
	RoleRequested RoleStatus = iota
	// RoleAlreadyHeld means the role is already granted.
	RoleAlreadyHeld
	// RoleUnavailable means the platform supports screening but the role cannot be granted.
	RoleUnavailable
	// RoleUnsupported means the platform has no call-screening capability.
	RoleUnsupported
)

// String returns a stable string representation of the status.
func (s RoleStatus) String() string {
	switch s {
	case RoleRequested:
		return "requested"
	case RoleAlreadyHeld:
		return "already_held"
	case RoleUnavailable:
		return "unavailable"
	case RoleUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("RoleStatus(%d)", s)
	}
}

// RoleState describes the platform's call-screening capability as observed now.
type RoleState uint8

const (
	// RoleStateUnsupported means there is no screening capability at all.
	RoleStateUnsupported RoleState = iota
	// RoleStateUnavailable means the capability exists but the role cannot be granted.
	RoleStateUnavailable
	// RoleStateAvailable means the role can be requested.
	RoleStateAvailable
	// RoleStateHeld means the role is granted to this application.
	RoleStateHeld
)

// ParseRoleState accepts "unsupported", "unavailable", "available", "held".
func ParseRoleState(s string) (RoleState, error) {
	switch s {
	case "unsupported":
		return RoleStateUnsupported, nil
	case "unavailable":
		return RoleStateUnavailable, nil
	case "available":
		return RoleStateAvailable, nil
	case "held":
		return RoleStateHeld, nil
	default:
		return 0, fmt.Errorf("unsupported role state: %q", s)
	}
}

// Supported reports whether the platform can screen calls at all.
func (s RoleState) Supported() bool { return s != RoleStateUnsupported }
