package domain

// ScreenReason explains which step of the screening pipeline produced a decision.
type ScreenReason string

const (
	ReasonWithheld        ScreenReason = "withheld"
	ReasonUnsupported     ScreenReason = "unsupported"
	ReasonDisabled        ScreenReason = "disabled"
	ReasonOutsideSchedule ScreenReason = "outside_schedule"
	ReasonAllowListed     ScreenReason = "allow_listed"
	ReasonKnownContact    ScreenReason = "known_contact"
	ReasonUnknownCaller   ScreenReason = "unknown_caller"

	// Fail-open reasons: a collaborator failed and the call was allowed.
	ReasonPolicyError    ScreenReason = "policy_error"
	ReasonAllowListError ScreenReason = "allowlist_error"
	ReasonDirectoryError ScreenReason = "directory_error"
)

// FailOpen reports whether the reason records a collaborator failure.
func (r ScreenReason) FailOpen() bool {
	switch r {
	case ReasonPolicyError, ReasonAllowListError, ReasonDirectoryError:
		return true
	default:
		return false
	}
}

// ScreenDecision is the outcome of screening a single incoming call.
// Pure value type, no external dependencies.
type ScreenDecision struct {
	Block  bool
	Reason ScreenReason
	Logged bool // true when a rejection entry was persisted for this call
}

// Allow returns a not-blocked decision with the given reason.
func Allow(reason ScreenReason) ScreenDecision {
	return ScreenDecision{Block: false, Reason: reason}
}

// Action returns "block" or "allow".
func (d ScreenDecision) Action() string {
	if d.Block {
		return "block"
	}
	return "allow"
}
