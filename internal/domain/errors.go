package domain

import "errors"

// Sentinel errors for the domain layer. Cross-tenant lookups resolve to
// ErrNotFound so ids do not leak existence across tenants; permission
// failures are typed access.PermissionError values, not sentinels.
var (
	ErrNotFound = errors.New("domain: not found")
	ErrConflict = errors.New("domain: conflict")
)
