package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/domain"
)

type CreateAppointmentInput struct {
	Body struct {
		WorkOrderID  uuid.UUID `json:"work_order_id" doc:"Work order ID"`
		TechnicianID uuid.UUID `json:"technician_id" doc:"Technician user ID"`
		StartsAt     time.Time `json:"starts_at" doc:"Window start"`
		EndsAt       time.Time `json:"ends_at" doc:"Window end"`
		Notes        string    `json:"notes,omitempty" doc:"Scheduling notes"`
	}
}

type CreateAppointmentOutput struct {
	Body *domain.Appointment
}

type ListAppointmentsInput struct {
	TechnicianID uuid.UUID `query:"technician_id" doc:"Technician user ID (field staff default to themselves)"`
	From         time.Time `query:"from" doc:"Window start (default now)"`
	To           time.Time `query:"to" doc:"Window end (default 7 days after from)"`
}

type ListAppointmentsOutput struct {
	Body []*domain.Appointment
}

type ListWorkOrderAppointmentsInput struct {
	ID uuid.UUID `path:"id" doc:"Work order ID"`
}

type ListWorkOrderAppointmentsOutput struct {
	Body []*domain.Appointment
}

type RescheduleAppointmentInput struct {
	ID   uuid.UUID `path:"id" doc:"Appointment ID"`
	Body struct {
		StartsAt time.Time `json:"starts_at" doc:"New window start"`
		EndsAt   time.Time `json:"ends_at" doc:"New window end"`
	}
}

type RescheduleAppointmentOutput struct {
	Body *domain.Appointment
}

type TransitionAppointmentStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Appointment ID"`
	Body struct {
		Status string `json:"status" minLength:"1" doc:"Target status"`
	}
}

type TransitionAppointmentStatusOutput struct {
	Body *domain.Appointment
}

func RegisterAppointmentRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-appointment",
		Method:      http.MethodPost,
		Path:        "/appointments",
		Summary:     "Schedule a technician for a work order",
		Tags:        []string{"Appointments"},
	}, func(ctx context.Context, input *CreateAppointmentInput) (*CreateAppointmentOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "schedule appointments"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		if !input.Body.StartsAt.Before(input.Body.EndsAt) {
			return nil, huma.Error400BadRequest("starts_at must be before ends_at")
		}

		if _, err := store.WorkOrders().GetByID(ctx, act.TenantID, input.Body.WorkOrderID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("work order not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate work order", err)
		}

		conflict, err := store.Appointments().HasConflict(ctx, act.TenantID, input.Body.TechnicianID,
			input.Body.StartsAt, input.Body.EndsAt, uuid.Nil)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to check schedule conflicts", err)
		}
		if conflict {
			return nil, huma.Error409Conflict("technician already has an overlapping appointment")
		}

		now := time.Now()
		a := &domain.Appointment{
			ID:           uuid.New(),
			TenantID:     act.TenantID,
			WorkOrderID:  input.Body.WorkOrderID,
			TechnicianID: input.Body.TechnicianID,
			StartsAt:     input.Body.StartsAt,
			EndsAt:       input.Body.EndsAt,
			Status:       domain.AppointmentStatusScheduled,
			Notes:        input.Body.Notes,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.Appointments().Create(ctx, a); err != nil {
			return nil, huma.Error500InternalServerError("failed to create appointment", err)
		}

		recordAudit(ctx, store, act, "create", "appointment", a.ID, map[string]any{
			"technician_id": a.TechnicianID.String(),
		})

		return &CreateAppointmentOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-appointments",
		Method:      http.MethodGet,
		Path:        "/appointments",
		Summary:     "List a technician's appointments in a window",
		Tags:        []string{"Appointments"},
	}, func(ctx context.Context, input *ListAppointmentsInput) (*ListAppointmentsOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		technicianID := input.TechnicianID
		scope := access.ScopeFor(act.Role, act.UserID)
		if scope.Kind != access.ScopeAll {
			// Non-managerial callers only see their own schedule.
			technicianID = act.UserID
		}
		if technicianID == uuid.Nil {
			return nil, huma.Error400BadRequest("technician_id is required")
		}

		from := input.From
		if from.IsZero() {
			from = time.Now()
		}
		to := input.To
		if to.IsZero() {
			to = from.AddDate(0, 0, 7)
		}
		if !from.Before(to) {
			return nil, huma.Error400BadRequest("from must be before to")
		}

		items, err := store.Appointments().ListByTechnician(ctx, act.TenantID, technicianID, from, to)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list appointments", err)
		}

		return &ListAppointmentsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-work-order-appointments",
		Method:      http.MethodGet,
		Path:        "/work-orders/{id}/appointments",
		Summary:     "List appointments for a work order",
		Tags:        []string{"Appointments"},
	}, func(ctx context.Context, input *ListWorkOrderAppointmentsInput) (*ListWorkOrderAppointmentsOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := fetchVisibleWorkOrder(ctx, store, act, input.ID); err != nil {
			return nil, err
		}

		items, err := store.Appointments().ListByWorkOrder(ctx, act.TenantID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list appointments", err)
		}

		return &ListWorkOrderAppointmentsOutput{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reschedule-appointment",
		Method:      http.MethodPatch,
		Path:        "/appointments/{id}",
		Summary:     "Move an appointment to a new time window",
		Tags:        []string{"Appointments"},
	}, func(ctx context.Context, input *RescheduleAppointmentInput) (*RescheduleAppointmentOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "reschedule appointments"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		if !input.Body.StartsAt.Before(input.Body.EndsAt) {
			return nil, huma.Error400BadRequest("starts_at must be before ends_at")
		}

		existing, err := store.Appointments().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("appointment not found")
			}
			return nil, huma.Error500InternalServerError("failed to get appointment", err)
		}

		if existing.Status != domain.AppointmentStatusScheduled {
			return nil, huma.Error409Conflict("appointment is already " + string(existing.Status))
		}

		conflict, err := store.Appointments().HasConflict(ctx, act.TenantID, existing.TechnicianID,
			input.Body.StartsAt, input.Body.EndsAt, existing.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to check schedule conflicts", err)
		}
		if conflict {
			return nil, huma.Error409Conflict("technician already has an overlapping appointment")
		}

		existing.StartsAt = input.Body.StartsAt
		existing.EndsAt = input.Body.EndsAt
		existing.UpdatedAt = time.Now()

		if err := store.Appointments().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update appointment", err)
		}

		recordAudit(ctx, store, act, "reschedule", "appointment", existing.ID, nil)

		return &RescheduleAppointmentOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-appointment-status",
		Method:      http.MethodPatch,
		Path:        "/appointments/{id}/status",
		Summary:     "Transition appointment status",
		Tags:        []string{"Appointments"},
	}, func(ctx context.Context, input *TransitionAppointmentStatusInput) (*TransitionAppointmentStatusOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		existing, err := store.Appointments().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("appointment not found")
			}
			return nil, huma.Error500InternalServerError("failed to get appointment", err)
		}

		// Managerial roles may transition any appointment; the scheduled
		// technician may transition their own.
		if !access.HasPermission(act.Role, access.Managerial()) && existing.TechnicianID != act.UserID {
			permErr := access.RequirePermission(act.Role, access.Managerial(), "transition this appointment")
			return nil, huma.Error403Forbidden(permErr.Error())
		}

		target := domain.AppointmentStatus(input.Body.Status)
		if !target.Valid() {
			return nil, huma.Error400BadRequest("unknown appointment status: " + input.Body.Status)
		}
		if target == domain.AppointmentStatusScheduled {
			return nil, huma.Error400BadRequest("appointments cannot transition back to scheduled")
		}
		if existing.Status != domain.AppointmentStatusScheduled {
			return nil, huma.Error409Conflict("appointment is already " + string(existing.Status))
		}

		existing.Status = target
		existing.UpdatedAt = time.Now()

		if err := store.Appointments().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update appointment", err)
		}

		recordAudit(ctx, store, act, "transition", "appointment", existing.ID, map[string]any{
			"to": string(target),
		})

		return &TransitionAppointmentStatusOutput{Body: existing}, nil
	})
}
