package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/query"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusVoid:
		return true
	default:
		return false
	}
}

// ValidTransition checks whether an invoice status change is allowed.
// Paid and void are terminal.
func (s InvoiceStatus) ValidTransition(to InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return to == InvoiceStatusSent || to == InvoiceStatusVoid
	case InvoiceStatusSent:
		return to == InvoiceStatusPaid || to == InvoiceStatusOverdue || to == InvoiceStatusVoid
	case InvoiceStatusOverdue:
		return to == InvoiceStatusPaid || to == InvoiceStatusVoid
	default:
		return false
	}
}

// Invoice amounts are integer cents; float currency never enters the domain.
type Invoice struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenant_id"`
	WorkOrderID uuid.UUID     `json:"work_order_id"`
	CustomerID  uuid.UUID     `json:"customer_id"`
	Number      string        `json:"number"`
	Status      InvoiceStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
	TaxCents    int64         `json:"tax_cents"`
	DueAt       *time.Time    `json:"due_at,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// RevenueStats aggregates invoice totals under the caller's visibility scope.
type RevenueStats struct {
	TotalCents       int64 `json:"total_cents"`
	PaidCents        int64 `json:"paid_cents"`
	OutstandingCents int64 `json:"outstanding_cents"` // sent + overdue
	InvoiceCount     int64 `json:"invoice_count"`
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status InvoiceStatus, paidAt *time.Time) error

	List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*Invoice, error)
	Revenue(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (*RevenueStats, error)
	NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
