package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/query"
)

type WorkOrderStatus string

const (
	WorkOrderStatusNew        WorkOrderStatus = "new"
	WorkOrderStatusScheduled  WorkOrderStatus = "scheduled"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusOnHold     WorkOrderStatus = "on_hold"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case WorkOrderStatusNew, WorkOrderStatusScheduled, WorkOrderStatusInProgress,
		WorkOrderStatusOnHold, WorkOrderStatusCompleted, WorkOrderStatusCancelled:
		return true
	default:
		return false
	}
}

// ValidTransition checks whether a status change is allowed. Completed and
// cancelled are terminal.
func (s WorkOrderStatus) ValidTransition(to WorkOrderStatus) bool {
	switch s {
	case WorkOrderStatusNew:
		return to == WorkOrderStatusScheduled || to == WorkOrderStatusInProgress || to == WorkOrderStatusCancelled
	case WorkOrderStatusScheduled:
		return to == WorkOrderStatusInProgress || to == WorkOrderStatusOnHold || to == WorkOrderStatusCancelled
	case WorkOrderStatusInProgress:
		return to == WorkOrderStatusOnHold || to == WorkOrderStatusCompleted || to == WorkOrderStatusCancelled
	case WorkOrderStatusOnHold:
		return to == WorkOrderStatusInProgress || to == WorkOrderStatusCancelled
	default:
		return false
	}
}

type WorkOrderType string

const (
	WorkOrderTypeMaintenance  WorkOrderType = "maintenance"
	WorkOrderTypeRepair       WorkOrderType = "repair"
	WorkOrderTypeInstallation WorkOrderType = "installation"
	WorkOrderTypeInspection   WorkOrderType = "inspection"
)

func (t WorkOrderType) Valid() bool {
	switch t {
	case WorkOrderTypeMaintenance, WorkOrderTypeRepair, WorkOrderTypeInstallation, WorkOrderTypeInspection:
		return true
	default:
		return false
	}
}

type WorkOrderPriority string

const (
	WorkOrderPriorityLow    WorkOrderPriority = "low"
	WorkOrderPriorityMedium WorkOrderPriority = "medium"
	WorkOrderPriorityHigh   WorkOrderPriority = "high"
	WorkOrderPriorityUrgent WorkOrderPriority = "urgent"
)

func (p WorkOrderPriority) Valid() bool {
	switch p {
	case WorkOrderPriorityLow, WorkOrderPriorityMedium, WorkOrderPriorityHigh, WorkOrderPriorityUrgent:
		return true
	default:
		return false
	}
}

type WorkOrder struct {
	ID           uuid.UUID         `json:"id"`
	TenantID     uuid.UUID         `json:"tenant_id"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	Location     string            `json:"location,omitempty"`
	Status       WorkOrderStatus   `json:"status"`
	Type         WorkOrderType     `json:"type"`
	Priority     WorkOrderPriority `json:"priority"`
	AssignedToID *uuid.UUID        `json:"assigned_to_id,omitempty"`
	CreatedByID  uuid.UUID         `json:"created_by_id"`
	ScheduledAt  *time.Time        `json:"scheduled_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// WorkOrderStats summarizes work orders under the caller's visibility scope.
type WorkOrderStats struct {
	Total    int64                     `json:"total"`
	ByStatus map[WorkOrderStatus]int64 `json:"by_status"`
	ByType   map[WorkOrderType]int64   `json:"by_type"`
}

type WorkOrderRepository interface {
	Create(ctx context.Context, w *WorkOrder) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*WorkOrder, error)
	Update(ctx context.Context, w *WorkOrder) error
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status WorkOrderStatus, completedAt *time.Time) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*WorkOrder, error)
	Count(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error)
	CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (int64, error)
	Stats(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (*WorkOrderStats, error)
}
