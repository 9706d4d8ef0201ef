package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/api/ws"
	"github.com/fieldsuite/fieldops/internal/billing"
	"github.com/fieldsuite/fieldops/internal/domain"
	"github.com/fieldsuite/fieldops/internal/query"
)

type CreateWorkOrderInput struct {
	Body struct {
		CustomerID  uuid.UUID  `json:"customer_id" doc:"Customer ID"`
		Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Work order title"`
		Description string     `json:"description,omitempty" doc:"Work order description"`
		Location    string     `json:"location,omitempty" maxLength:"500" doc:"Service location"`
		Type        string     `json:"type" minLength:"1" doc:"Work order type"`
		Priority    string     `json:"priority,omitempty" doc:"Priority (default medium)"`
		AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" doc:"Assigned user ID"`
		ScheduledAt *time.Time `json:"scheduled_at,omitempty" doc:"Scheduled time"`
	}
}

type CreateWorkOrderOutput struct {
	Body *domain.WorkOrder
}

type ListWorkOrdersInput struct {
	Status     string    `query:"status" doc:"Filter by status"`
	Type       string    `query:"type" doc:"Filter by type"`
	Priority   string    `query:"priority" doc:"Filter by priority"`
	AssignedTo uuid.UUID `query:"assigned_to" doc:"Filter by assigned user ID"`
	CustomerID uuid.UUID `query:"customer_id" doc:"Filter by customer ID"`
	Search     string    `query:"search" maxLength:"200" doc:"Substring search across title, description, location and customer name"`
	Limit      int       `query:"limit" doc:"Max results per page (1-100, default 50)"`
	Cursor     uuid.UUID `query:"cursor" doc:"ID of the last item of the previous page"`
}

type ListWorkOrdersOutput struct {
	Body struct {
		Items      []*domain.WorkOrder `json:"items"`
		NextCursor *uuid.UUID          `json:"next_cursor,omitempty"`
		HasMore    bool                `json:"has_more"`
	}
}

type GetWorkOrderInput struct {
	ID uuid.UUID `path:"id" doc:"Work order ID"`
}

type GetWorkOrderOutput struct {
	Body *domain.WorkOrder
}

type UpdateWorkOrderInput struct {
	ID   uuid.UUID `path:"id" doc:"Work order ID"`
	Body struct {
		Title       string     `json:"title,omitempty" maxLength:"500" doc:"Work order title"`
		Description *string    `json:"description,omitempty" doc:"Work order description"`
		Location    *string    `json:"location,omitempty" maxLength:"500" doc:"Service location"`
		Priority    string     `json:"priority,omitempty" doc:"Priority"`
		AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" doc:"Assigned user ID"`
		ScheduledAt *time.Time `json:"scheduled_at,omitempty" doc:"Scheduled time"`
	}
}

type UpdateWorkOrderOutput struct {
	Body *domain.WorkOrder
}

type TransitionWorkOrderStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Work order ID"`
	Body struct {
		Status string `json:"status" minLength:"1" doc:"Target status"`
	}
}

type TransitionWorkOrderStatusOutput struct {
	Body *domain.WorkOrder
}

type DeleteWorkOrderInput struct {
	ID uuid.UUID `path:"id" doc:"Work order ID"`
}

type WorkOrderStatsInput struct{}

type WorkOrderStatsOutput struct {
	Body *domain.WorkOrderStats
}

func RegisterWorkOrderRoutes(api huma.API, store DataStore, events EventPublisher, notifier AssignmentNotifier) {
	huma.Register(api, huma.Operation{
		OperationID: "create-work-order",
		Method:      http.MethodPost,
		Path:        "/work-orders",
		Summary:     "Create a new work order",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, input *CreateWorkOrderInput) (*CreateWorkOrderOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "create work orders"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		woType := domain.WorkOrderType(input.Body.Type)
		if !woType.Valid() {
			return nil, huma.Error400BadRequest("unknown work order type: " + input.Body.Type)
		}

		priority := domain.WorkOrderPriorityMedium
		if input.Body.Priority != "" {
			priority = domain.WorkOrderPriority(input.Body.Priority)
			if !priority.Valid() {
				return nil, huma.Error400BadRequest("unknown priority: " + input.Body.Priority)
			}
		}

		if _, err := store.Customers().GetByID(ctx, act.TenantID, input.Body.CustomerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("customer not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate customer", err)
		}

		now := time.Now()

		// Plan limits only apply to tenants with a configured record; the
		// dashboard surfaces the missing-record state separately.
		tenant, err := store.Tenants().GetByID(ctx, act.TenantID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error500InternalServerError("failed to resolve tenant", err)
		}
		if tenant != nil {
			window := query.DateRange{From: now.AddDate(0, 0, -30), To: now}
			created, err := store.WorkOrders().CountCreatedBetween(ctx, act.TenantID, query.Predicate{}, window)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to count work orders", err)
			}
			if err := billing.CheckWorkOrderLimit(tenant.Plan, int(created)); err != nil {
				return nil, huma.Error409Conflict(err.Error())
			}
		}
		w := &domain.WorkOrder{
			ID:           uuid.New(),
			TenantID:     act.TenantID,
			CustomerID:   input.Body.CustomerID,
			Title:        input.Body.Title,
			Description:  input.Body.Description,
			Location:     input.Body.Location,
			Status:       domain.WorkOrderStatusNew,
			Type:         woType,
			Priority:     priority,
			AssignedToID: input.Body.AssignedTo,
			CreatedByID:  act.UserID,
			ScheduledAt:  input.Body.ScheduledAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.WorkOrders().Create(ctx, w); err != nil {
			return nil, huma.Error500InternalServerError("failed to create work order", err)
		}

		recordAudit(ctx, store, act, "create", "work_order", w.ID, map[string]any{"title": w.Title})

		publishDispatch(ctx, events, act.TenantID, ws.Event{
			Type:         "work_order.created",
			WorkOrderID:  w.ID,
			Status:       string(w.Status),
			AssignedToID: w.AssignedToID,
			At:           now,
		})

		if w.AssignedToID != nil {
			notifyAssignment(ctx, notifier, act.TenantID, *w.AssignedToID, w.Title)
		}

		return &CreateWorkOrderOutput{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-work-orders",
		Method:      http.MethodGet,
		Path:        "/work-orders",
		Summary:     "List work orders visible to the caller",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, input *ListWorkOrdersInput) (*ListWorkOrdersOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		opts, err := query.BuildPageOptions(query.PageRequest{
			Limit:  input.Limit,
			Cursor: optionalID(input.Cursor),
		})
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		pred := query.NewWorkOrderFilter(act.Role, act.UserID).
			WithRoleScope().
			WithStatus(input.Status).
			WithType(input.Type).
			WithPriority(input.Priority).
			WithAssignee(optionalID(input.AssignedTo)).
			WithCustomer(optionalID(input.CustomerID)).
			WithSearch(input.Search).
			Build()

		items, err := store.WorkOrders().List(ctx, act.TenantID, pred, opts)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list work orders", err)
		}

		limit := input.Limit
		if limit == 0 {
			limit = query.DefaultPageLimit
		}
		page := query.ProcessPage(items, limit, func(w *domain.WorkOrder) uuid.UUID { return w.ID })

		out := &ListWorkOrdersOutput{}
		out.Body.Items = page.Items
		out.Body.NextCursor = page.NextCursor
		out.Body.HasMore = page.HasMore
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "work-order-stats",
		Method:      http.MethodGet,
		Path:        "/work-orders/stats",
		Summary:     "Aggregate work order counts under the caller's scope",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, _ *WorkOrderStatsInput) (*WorkOrderStatsOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		pred := query.NewWorkOrderFilter(act.Role, act.UserID).WithRoleScope().Build()

		stats, err := store.WorkOrders().Stats(ctx, act.TenantID, pred)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to aggregate work orders", err)
		}

		return &WorkOrderStatsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work-order",
		Method:      http.MethodGet,
		Path:        "/work-orders/{id}",
		Summary:     "Get a work order by ID",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, input *GetWorkOrderInput) (*GetWorkOrderOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		w, err := fetchVisibleWorkOrder(ctx, store, act, input.ID)
		if err != nil {
			return nil, err
		}

		return &GetWorkOrderOutput{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-work-order",
		Method:      http.MethodPut,
		Path:        "/work-orders/{id}",
		Summary:     "Update a work order",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, input *UpdateWorkOrderInput) (*UpdateWorkOrderOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "update work orders"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		existing, err := store.WorkOrders().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("work order not found")
			}
			return nil, huma.Error500InternalServerError("failed to get work order", err)
		}

		if input.Body.Priority != "" {
			p := domain.WorkOrderPriority(input.Body.Priority)
			if !p.Valid() {
				return nil, huma.Error400BadRequest("unknown priority: " + input.Body.Priority)
			}
			existing.Priority = p
		}

		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.Location != nil {
			existing.Location = *input.Body.Location
		}
		if input.Body.ScheduledAt != nil {
			existing.ScheduledAt = input.Body.ScheduledAt
		}

		assigneeChanged := false
		if input.Body.AssignedTo != nil && (existing.AssignedToID == nil || *existing.AssignedToID != *input.Body.AssignedTo) {
			existing.AssignedToID = input.Body.AssignedTo
			assigneeChanged = true
		}
		existing.UpdatedAt = time.Now()

		if err := store.WorkOrders().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update work order", err)
		}

		recordAudit(ctx, store, act, "update", "work_order", existing.ID, nil)

		if assigneeChanged {
			publishDispatch(ctx, events, act.TenantID, ws.Event{
				Type:         "work_order.assigned",
				WorkOrderID:  existing.ID,
				Status:       string(existing.Status),
				AssignedToID: existing.AssignedToID,
				At:           existing.UpdatedAt,
			})
			notifyAssignment(ctx, notifier, act.TenantID, *existing.AssignedToID, existing.Title)
		}

		return &UpdateWorkOrderOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-work-order-status",
		Method:      http.MethodPatch,
		Path:        "/work-orders/{id}/status",
		Summary:     "Transition work order status",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, input *TransitionWorkOrderStatusInput) (*TransitionWorkOrderStatusOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		existing, err := store.WorkOrders().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("work order not found")
			}
			return nil, huma.Error500InternalServerError("failed to get work order", err)
		}

		// Managerial roles may transition any work order; field staff only
		// the ones assigned to them.
		if !access.HasPermission(act.Role, access.Managerial()) {
			assigned := access.HasPermission(act.Role, access.FieldStaff()) &&
				existing.AssignedToID != nil && *existing.AssignedToID == act.UserID
			if !assigned {
				permErr := access.RequirePermission(act.Role, access.Managerial(), "transition this work order")
				return nil, huma.Error403Forbidden(permErr.Error())
			}
		}

		target := domain.WorkOrderStatus(input.Body.Status)
		if !target.Valid() {
			return nil, huma.Error400BadRequest("unknown work order status: " + input.Body.Status)
		}
		if !existing.Status.ValidTransition(target) {
			return nil, huma.Error409Conflict("invalid status transition from " + string(existing.Status) + " to " + string(target))
		}

		var completedAt *time.Time
		if target == domain.WorkOrderStatusCompleted {
			now := time.Now()
			completedAt = &now
		}

		if err := store.WorkOrders().UpdateStatus(ctx, act.TenantID, input.ID, target, completedAt); err != nil {
			return nil, huma.Error500InternalServerError("failed to update work order status", err)
		}

		recordAudit(ctx, store, act, "transition", "work_order", existing.ID, map[string]any{
			"from": string(existing.Status),
			"to":   string(target),
		})

		existing.Status = target
		existing.CompletedAt = completedAt
		existing.UpdatedAt = time.Now()

		publishDispatch(ctx, events, act.TenantID, ws.Event{
			Type:         "work_order.status_changed",
			WorkOrderID:  existing.ID,
			Status:       string(target),
			AssignedToID: existing.AssignedToID,
			At:           existing.UpdatedAt,
		})

		return &TransitionWorkOrderStatusOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-work-order",
		Method:      http.MethodDelete,
		Path:        "/work-orders/{id}",
		Summary:     "Delete a work order",
		Tags:        []string{"WorkOrders"},
	}, func(ctx context.Context, input *DeleteWorkOrderInput) (*struct{}, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "delete work orders"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		if err := store.WorkOrders().Delete(ctx, act.TenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("work order not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete work order", err)
		}

		recordAudit(ctx, store, act, "delete", "work_order", input.ID, nil)

		return nil, nil
	})

}

// fetchVisibleWorkOrder loads a work order and applies the caller's visibility
// scope. Out-of-scope rows surface as not found, never as forbidden, so the
// response does not leak existence.
func fetchVisibleWorkOrder(ctx context.Context, store DataStore, act actor, id uuid.UUID) (*domain.WorkOrder, error) {
	w, err := store.WorkOrders().GetByID(ctx, act.TenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("work order not found")
		}
		return nil, huma.Error500InternalServerError("failed to get work order", err)
	}

	scope := access.ScopeFor(act.Role, act.UserID)
	switch scope.Kind {
	case access.ScopeAll:
		return w, nil
	case access.ScopeAssigned:
		if w.AssignedToID != nil && *w.AssignedToID == scope.ActorID {
			return w, nil
		}
	case access.ScopeOwnCustomers:
		c, err := store.Customers().GetByID(ctx, act.TenantID, w.CustomerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error500InternalServerError("failed to resolve customer", err)
		}
		if err == nil && c.CreatedByID == scope.ActorID {
			return w, nil
		}
	}

	return nil, huma.Error404NotFound("work order not found")
}

// optionalID converts a zero UUID query parameter into an absent filter value.
func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func publishDispatch(ctx context.Context, events EventPublisher, tenantID uuid.UUID, event ws.Event) {
	if err := events.PublishEvent(ctx, tenantID, event); err != nil {
		log.Warn().Err(err).Str("type", event.Type).Msg("dispatch: failed to publish event")
	}
}

func notifyAssignment(ctx context.Context, notifier AssignmentNotifier, tenantID, userID uuid.UUID, title string) {
	if err := notifier.NotifyAssignment(ctx, tenantID, userID, "You were assigned a work order: "+title); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("notify: failed to send assignment notification")
	}
}
