package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/query"
)

type Customer struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedByID  uuid.UUID  `json:"created_by_id"`
	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty"` // account manager
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CustomerStats summarizes a tenant's customer base under the caller's
// visibility scope.
type CustomerStats struct {
	Total    int64 `json:"total"`
	NewCount int64 `json:"new_count"` // created within the requested range
}

type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// List returns up to opts.Take rows matching pred, ordered by
	// (created_at, id), starting strictly after the cursor row.
	List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*Customer, error)
	Count(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error)
	CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (int64, error)
}
