package v1

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/domain"
	"github.com/fieldsuite/fieldops/internal/server/middleware"
)

// actor is the authenticated caller resolved from the request context.
type actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     access.Role
}

// actorFromContext extracts the authenticated actor. The auth middleware sets
// all three values together, so a missing one means the route was mounted
// without authentication.
func actorFromContext(ctx context.Context) (actor, error) {
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok {
		return actor{}, huma.Error403Forbidden("missing tenant context")
	}

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return actor{}, huma.Error403Forbidden("missing user context")
	}

	role, ok := middleware.RoleFromContext(ctx)
	if !ok {
		return actor{}, huma.Error403Forbidden("missing role context")
	}

	return actor{TenantID: tenantID, UserID: userID, Role: role}, nil
}

// recordAudit writes an audit entry for a completed mutation. Audit failures
// are logged, never surfaced, since the mutation already committed.
func recordAudit(ctx context.Context, store DataStore, act actor, action, resource string, resourceID uuid.UUID, details map[string]any) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		TenantID:   act.TenantID,
		ActorID:    act.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		CreatedAt:  time.Now(),
	}

	if err := store.Audit().Record(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("resource", resource).
			Str("resource_id", resourceID.String()).
			Msg("audit: failed to record entry")
	}
}
