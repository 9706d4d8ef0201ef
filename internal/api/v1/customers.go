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

type CreateCustomerInput struct {
	Body struct {
		Name       string     `json:"name" minLength:"1" maxLength:"255" doc:"Customer name"`
		Email      string     `json:"email,omitempty" maxLength:"255" doc:"Contact email"`
		Phone      string     `json:"phone,omitempty" maxLength:"50" doc:"Contact phone"`
		Address    string     `json:"address,omitempty" maxLength:"500" doc:"Service address"`
		Notes      string     `json:"notes,omitempty" doc:"Internal notes"`
		AssignedTo *uuid.UUID `json:"assigned_to,omitempty" doc:"Account manager user ID"`
	}
}

type CreateCustomerOutput struct {
	Body *domain.Customer
}

type ListCustomersInput struct {
	Search string    `query:"search" maxLength:"200" doc:"Substring search across name, email, phone and address"`
	Limit  int       `query:"limit" doc:"Max results per page (1-100, default 50)"`
	Cursor uuid.UUID `query:"cursor" doc:"ID of the last item of the previous page"`
}

type ListCustomersOutput struct {
	Body struct {
		Items      []*domain.Customer `json:"items"`
		NextCursor *uuid.UUID         `json:"next_cursor,omitempty"`
		HasMore    bool               `json:"has_more"`
	}
}

type GetCustomerInput struct {
	ID uuid.UUID `path:"id" doc:"Customer ID"`
}

type GetCustomerOutput struct {
	Body *domain.Customer
}

type UpdateCustomerInput struct {
	ID   uuid.UUID `path:"id" doc:"Customer ID"`
	Body struct {
		Name       string     `json:"name,omitempty" maxLength:"255" doc:"Customer name"`
		Email      *string    `json:"email,omitempty" maxLength:"255" doc:"Contact email"`
		Phone      *string    `json:"phone,omitempty" maxLength:"50" doc:"Contact phone"`
		Address    *string    `json:"address,omitempty" maxLength:"500" doc:"Service address"`
		Notes      *string    `json:"notes,omitempty" doc:"Internal notes"`
		AssignedTo *uuid.UUID `json:"assigned_to,omitempty" doc:"Account manager user ID"`
	}
}

type UpdateCustomerOutput struct {
	Body *domain.Customer
}

type DeleteCustomerInput struct {
	ID uuid.UUID `path:"id" doc:"Customer ID"`
}

type CustomerStatsInput struct{}

type CustomerStatsOutput struct {
	Body *domain.CustomerStats
}

func RegisterCustomerRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-customer",
		Method:      http.MethodPost,
		Path:        "/customers",
		Summary:     "Create a new customer",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *CreateCustomerInput) (*CreateCustomerOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "create customers"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		now := time.Now()
		c := &domain.Customer{
			ID:           uuid.New(),
			TenantID:     act.TenantID,
			Name:         input.Body.Name,
			Email:        input.Body.Email,
			Phone:        input.Body.Phone,
			Address:      input.Body.Address,
			Notes:        input.Body.Notes,
			CreatedByID:  act.UserID,
			AssignedToID: input.Body.AssignedTo,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.Customers().Create(ctx, c); err != nil {
			return nil, huma.Error500InternalServerError("failed to create customer", err)
		}

		recordAudit(ctx, store, act, "create", "customer", c.ID, map[string]any{"name": c.Name})

		return &CreateCustomerOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-customers",
		Method:      http.MethodGet,
		Path:        "/customers",
		Summary:     "List customers visible to the caller",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *ListCustomersInput) (*ListCustomersOutput, error) {
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

		pred := query.NewCustomerFilter(act.Role, act.UserID).
			WithRoleScope().
			WithSearch(input.Search).
			Build()

		items, err := store.Customers().List(ctx, act.TenantID, pred, opts)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list customers", err)
		}

		limit := input.Limit
		if limit == 0 {
			limit = query.DefaultPageLimit
		}
		page := query.ProcessPage(items, limit, func(c *domain.Customer) uuid.UUID { return c.ID })

		out := &ListCustomersOutput{}
		out.Body.Items = page.Items
		out.Body.NextCursor = page.NextCursor
		out.Body.HasMore = page.HasMore
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "customer-stats",
		Method:      http.MethodGet,
		Path:        "/customers/stats",
		Summary:     "Aggregate customer counts under the caller's scope",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, _ *CustomerStatsInput) (*CustomerStatsOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		pred := query.NewCustomerFilter(act.Role, act.UserID).WithRoleScope().Build()

		total, err := store.Customers().Count(ctx, act.TenantID, pred)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count customers", err)
		}

		rng := query.DateRange{}.Normalize(time.Now())
		recent, err := store.Customers().CountCreatedBetween(ctx, act.TenantID, pred, rng)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count customers", err)
		}

		return &CustomerStatsOutput{Body: &domain.CustomerStats{Total: total, NewCount: recent}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-customer",
		Method:      http.MethodGet,
		Path:        "/customers/{id}",
		Summary:     "Get a customer by ID",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *GetCustomerInput) (*GetCustomerOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		c, err := fetchVisibleCustomer(ctx, store, act, input.ID)
		if err != nil {
			return nil, err
		}

		return &GetCustomerOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-customer",
		Method:      http.MethodPut,
		Path:        "/customers/{id}",
		Summary:     "Update a customer",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *UpdateCustomerInput) (*UpdateCustomerOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "update customers"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		existing, err := store.Customers().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("customer not found")
			}
			return nil, huma.Error500InternalServerError("failed to get customer", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Email != nil {
			existing.Email = *input.Body.Email
		}
		if input.Body.Phone != nil {
			existing.Phone = *input.Body.Phone
		}
		if input.Body.Address != nil {
			existing.Address = *input.Body.Address
		}
		if input.Body.Notes != nil {
			existing.Notes = *input.Body.Notes
		}
		if input.Body.AssignedTo != nil {
			existing.AssignedToID = input.Body.AssignedTo
		}
		existing.UpdatedAt = time.Now()

		if err := store.Customers().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update customer", err)
		}

		recordAudit(ctx, store, act, "update", "customer", existing.ID, nil)

		return &UpdateCustomerOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-customer",
		Method:      http.MethodDelete,
		Path:        "/customers/{id}",
		Summary:     "Delete a customer",
		Tags:        []string{"Customers"},
	}, func(ctx context.Context, input *DeleteCustomerInput) (*struct{}, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "delete customers"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		if err := store.Customers().Delete(ctx, act.TenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("customer not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete customer", err)
		}

		recordAudit(ctx, store, act, "delete", "customer", input.ID, nil)

		return nil, nil
	})

}

// fetchVisibleCustomer loads a customer and applies the caller's visibility
// scope. Out-of-scope rows surface as not found.
func fetchVisibleCustomer(ctx context.Context, store DataStore, act actor, id uuid.UUID) (*domain.Customer, error) {
	c, err := store.Customers().GetByID(ctx, act.TenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("customer not found")
		}
		return nil, huma.Error500InternalServerError("failed to get customer", err)
	}

	scope := access.ScopeFor(act.Role, act.UserID)
	switch scope.Kind {
	case access.ScopeAll:
		return c, nil
	case access.ScopeAssigned:
		if c.AssignedToID != nil && *c.AssignedToID == scope.ActorID {
			return c, nil
		}
	case access.ScopeOwnCustomers:
		if c.CreatedByID == scope.ActorID {
			return c, nil
		}
	}

	return nil, huma.Error404NotFound("customer not found")
}
