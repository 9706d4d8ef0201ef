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
	"github.com/fieldsuite/fieldops/internal/query"
)

type CreateInvoiceInput struct {
	Body struct {
		WorkOrderID uuid.UUID  `json:"work_order_id" doc:"Work order to bill"`
		AmountCents int64      `json:"amount_cents" minimum:"0" doc:"Amount in cents"`
		TaxCents    int64      `json:"tax_cents,omitempty" minimum:"0" doc:"Tax in cents"`
		DueAt       *time.Time `json:"due_at,omitempty" doc:"Payment due date"`
	}
}

type CreateInvoiceOutput struct {
	Body *domain.Invoice
}

type ListInvoicesInput struct {
	Status      string    `query:"status" doc:"Filter by status"`
	CustomerID  uuid.UUID `query:"customer_id" doc:"Filter by customer ID"`
	WorkOrderID uuid.UUID `query:"work_order_id" doc:"Filter by work order ID"`
	Search      string    `query:"search" maxLength:"200" doc:"Substring search across number and customer name"`
	Limit       int       `query:"limit" doc:"Max results per page (1-100, default 50)"`
	Cursor      uuid.UUID `query:"cursor" doc:"ID of the last item of the previous page"`
}

type ListInvoicesOutput struct {
	Body struct {
		Items      []*domain.Invoice `json:"items"`
		NextCursor *uuid.UUID        `json:"next_cursor,omitempty"`
		HasMore    bool              `json:"has_more"`
	}
}

type GetInvoiceInput struct {
	ID uuid.UUID `path:"id" doc:"Invoice ID"`
}

type GetInvoiceOutput struct {
	Body *domain.Invoice
}

type TransitionInvoiceStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Invoice ID"`
	Body struct {
		Status string `json:"status" minLength:"1" doc:"Target status"`
	}
}

type TransitionInvoiceStatusOutput struct {
	Body *domain.Invoice
}

type RevenueInput struct {
	From time.Time `query:"from" doc:"Range start (default 30 days before range end)"`
	To   time.Time `query:"to" doc:"Range end (default now)"`
}

type RevenueOutput struct {
	Body *domain.RevenueStats
}

func RegisterInvoiceRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-invoice",
		Method:      http.MethodPost,
		Path:        "/invoices",
		Summary:     "Create a draft invoice for a work order",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *CreateInvoiceInput) (*CreateInvoiceOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "create invoices"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		w, err := store.WorkOrders().GetByID(ctx, act.TenantID, input.Body.WorkOrderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("work order not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate work order", err)
		}

		number, err := store.Invoices().NextNumber(ctx, act.TenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to allocate invoice number", err)
		}

		now := time.Now()
		inv := &domain.Invoice{
			ID:          uuid.New(),
			TenantID:    act.TenantID,
			WorkOrderID: w.ID,
			CustomerID:  w.CustomerID,
			Number:      number,
			Status:      domain.InvoiceStatusDraft,
			AmountCents: input.Body.AmountCents,
			TaxCents:    input.Body.TaxCents,
			DueAt:       input.Body.DueAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Invoices().Create(ctx, inv); err != nil {
			return nil, huma.Error500InternalServerError("failed to create invoice", err)
		}

		recordAudit(ctx, store, act, "create", "invoice", inv.ID, map[string]any{"number": inv.Number})

		return &CreateInvoiceOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-invoices",
		Method:      http.MethodGet,
		Path:        "/invoices",
		Summary:     "List invoices visible to the caller",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *ListInvoicesInput) (*ListInvoicesOutput, error) {
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

		pred := query.NewInvoiceFilter(act.Role, act.UserID).
			WithRoleScope().
			WithStatus(input.Status).
			WithCustomer(optionalID(input.CustomerID)).
			WithWorkOrder(optionalID(input.WorkOrderID)).
			WithSearch(input.Search).
			Build()

		items, err := store.Invoices().List(ctx, act.TenantID, pred, opts)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list invoices", err)
		}

		limit := input.Limit
		if limit == 0 {
			limit = query.DefaultPageLimit
		}
		page := query.ProcessPage(items, limit, func(inv *domain.Invoice) uuid.UUID { return inv.ID })

		out := &ListInvoicesOutput{}
		out.Body.Items = page.Items
		out.Body.NextCursor = page.NextCursor
		out.Body.HasMore = page.HasMore
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "invoice-revenue",
		Method:      http.MethodGet,
		Path:        "/invoices/revenue",
		Summary:     "Aggregate invoice revenue under the caller's scope",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *RevenueInput) (*RevenueOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		rng := query.DateRange{From: input.From, To: input.To}.Normalize(time.Now())
		pred := query.NewInvoiceFilter(act.Role, act.UserID).WithRoleScope().Build()

		stats, err := store.Invoices().Revenue(ctx, act.TenantID, pred, rng)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to aggregate revenue", err)
		}

		return &RevenueOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-invoice",
		Method:      http.MethodGet,
		Path:        "/invoices/{id}",
		Summary:     "Get an invoice by ID",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *GetInvoiceInput) (*GetInvoiceOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		inv, err := store.Invoices().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("invoice not found")
			}
			return nil, huma.Error500InternalServerError("failed to get invoice", err)
		}

		// Visibility follows the billed work order.
		if _, err := fetchVisibleWorkOrder(ctx, store, act, inv.WorkOrderID); err != nil {
			return nil, huma.Error404NotFound("invoice not found")
		}

		return &GetInvoiceOutput{Body: inv}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-invoice-status",
		Method:      http.MethodPatch,
		Path:        "/invoices/{id}/status",
		Summary:     "Transition invoice status",
		Tags:        []string{"Invoices"},
	}, func(ctx context.Context, input *TransitionInvoiceStatusInput) (*TransitionInvoiceStatusOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "transition invoices"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		existing, err := store.Invoices().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("invoice not found")
			}
			return nil, huma.Error500InternalServerError("failed to get invoice", err)
		}

		target := domain.InvoiceStatus(input.Body.Status)
		if !target.Valid() {
			return nil, huma.Error400BadRequest("unknown invoice status: " + input.Body.Status)
		}
		if !existing.Status.ValidTransition(target) {
			return nil, huma.Error409Conflict("invalid status transition from " + string(existing.Status) + " to " + string(target))
		}

		var paidAt *time.Time
		if target == domain.InvoiceStatusPaid {
			now := time.Now()
			paidAt = &now
		}

		if err := store.Invoices().UpdateStatus(ctx, act.TenantID, input.ID, target, paidAt); err != nil {
			return nil, huma.Error500InternalServerError("failed to update invoice status", err)
		}

		recordAudit(ctx, store, act, "transition", "invoice", existing.ID, map[string]any{
			"from": string(existing.Status),
			"to":   string(target),
		})

		existing.Status = target
		existing.PaidAt = paidAt
		existing.UpdatedAt = time.Now()

		return &TransitionInvoiceStatusOutput{Body: existing}, nil
	})

}
