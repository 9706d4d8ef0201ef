package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

// Appointment is a technician's scheduled time window for a work order.
// A technician cannot hold two overlapping non-cancelled appointments.
type Appointment struct {
	ID           uuid.UUID         `json:"id"`
	TenantID     uuid.UUID         `json:"tenant_id"`
	WorkOrderID  uuid.UUID         `json:"work_order_id"`
	TechnicianID uuid.UUID         `json:"technician_id"`
	StartsAt     time.Time         `json:"starts_at"`
	EndsAt       time.Time         `json:"ends_at"`
	Status       AppointmentStatus `json:"status"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Overlaps reports whether two half-open windows [StartsAt, EndsAt) intersect.
func (a *Appointment) Overlaps(startsAt, endsAt time.Time) bool {
	return a.StartsAt.Before(endsAt) && startsAt.Before(a.EndsAt)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error

	ListByTechnician(ctx context.Context, tenantID, technicianID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	ListByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]*Appointment, error)
	// HasConflict reports whether the technician already holds a
	// non-cancelled appointment overlapping [startsAt, endsAt), excluding
	// the appointment with excludeID (uuid.Nil to exclude none).
	HasConflict(ctx context.Context, tenantID, technicianID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (bool, error)
}
