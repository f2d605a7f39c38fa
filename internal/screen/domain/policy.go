package domain

// PolicyState is the persisted enablement flag. The zero value (disabled) is the default.
type PolicyState struct {
	Enabled bool
}
