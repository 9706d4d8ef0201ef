package access

import "fmt"

// PermissionError is returned when an actor's role is outside the allow-list
// for an operation. The RPC boundary maps it to a 403 response; it must never
// be downgraded to an empty result.
type PermissionError struct {
	Role   Role
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("access: role %q is not permitted to %s", e.Role, e.Action)
}

// HasPermission reports whether role is in the allowed set. An empty allowed
// list grants permission to everyone; only read-only listing endpoints may
// rely on that, mutations must always pass a non-empty list.
func HasPermission(role Role, allowed []Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// RequirePermission returns a *PermissionError carrying the action description
// when role is not in the allowed set. It is pure and must be called before
// any mutating side effect, never after.
func RequirePermission(role Role, allowed []Role, action string) error {
	if HasPermission(role, allowed) {
		return nil
	}
	return &PermissionError{Role: role, Action: action}
}
