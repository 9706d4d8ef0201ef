package access

import "github.com/google/uuid"

// ScopeKind classifies how far a role may see into the tenant's rows.
type ScopeKind int

const (
	// ScopeAll grants full tenant visibility (owner, manager, admin).
	ScopeAll ScopeKind = iota
	// ScopeAssigned restricts visibility to rows assigned to the actor
	// (technician, employee).
	ScopeAssigned
	// ScopeOwnCustomers restricts visibility to rows whose customer record
	// was created by the actor (client).
	ScopeOwnCustomers
)

// Scope is the role-based visibility rule for one request. It is computed
// once per request from the authenticated actor and consumed by every filter
// builder and stats query; handlers must never re-derive the rule inline.
type Scope struct {
	Kind    ScopeKind
	ActorID uuid.UUID
}

// ScopeFor derives the visibility scope for a role. Unknown roles fall back
// to the most restrictive scope so a malformed session can never widen
// visibility.
func ScopeFor(role Role, actorID uuid.UUID) Scope {
	switch role {
	case RoleOwner, RoleManager, RoleAdmin:
		return Scope{Kind: ScopeAll}
	case RoleTechnician, RoleEmployee:
		return Scope{Kind: ScopeAssigned, ActorID: actorID}
	case RoleClient:
		return Scope{Kind: ScopeOwnCustomers, ActorID: actorID}
	default:
		return Scope{Kind: ScopeOwnCustomers, ActorID: actorID}
	}
}
