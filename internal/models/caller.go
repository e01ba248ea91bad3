package models

import "errors"

// TenantScope is the opaque boundary isolating one institution's data and counters.
type TenantScope string

// String returns the raw tenant identifier.
func (t TenantScope) String() string { return string(t) }

// ErrMissingCaller indicates a caller without tenant, actor or role.
var ErrMissingCaller = errors.New("caller requires tenant, actor and role")

// Caller is the validated (tenant, actor, role) tuple every engine call receives.
type Caller struct {
	Tenant  TenantScope
	ActorID string
	Role    UserRole
}

// Validate checks the tuple is complete.
func (c Caller) Validate() error {
	if c.Tenant == "" || c.ActorID == "" || !c.Role.Valid() {
		return ErrMissingCaller
	}
	return nil
}

// HasRole reports whether the caller holds any of roles.
func (c Caller) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
