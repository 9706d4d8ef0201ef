package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/auth"
	"github.com/fieldsuite/fieldops/internal/billing"
	"github.com/fieldsuite/fieldops/internal/domain"
)

type RegisterTenantInput struct {
	Body struct {
		Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Company name"`
		Slug     string `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-safe slug (lowercase alphanumeric with hyphens)"`
		Timezone string `json:"timezone,omitempty" maxLength:"64" doc:"IANA timezone (default UTC)"`

		OwnerEmail    string `json:"owner_email" minLength:"3" maxLength:"255" doc:"Owner account email"`
		OwnerPassword string `json:"owner_password" minLength:"8" maxLength:"128" doc:"Owner account password"` //nolint:gosec // G117: signup credential DTO
		OwnerName     string `json:"owner_name" minLength:"1" maxLength:"255" doc:"Owner display name"`
	}
}

type RegisterTenantOutput struct {
	Body struct {
		Tenant *domain.Tenant `json:"tenant"`
		Owner  *domain.User   `json:"owner"`
	}
}

type GetTenantInput struct{}

type GetTenantOutput struct {
	Body *domain.Tenant
}

type UpdateTenantInput struct {
	Body struct {
		Name     string `json:"name,omitempty" maxLength:"255" doc:"Company name"`
		Timezone string `json:"timezone,omitempty" maxLength:"64" doc:"IANA timezone"`
		Plan     string `json:"plan,omitempty" doc:"Subscription plan"`
	}
}

type UpdateTenantOutput struct {
	Body *domain.Tenant
}

// RegisterTenantSignupRoutes mounts the unauthenticated tenant signup
// endpoint. Everything else in this file requires an authenticated actor.
func RegisterTenantSignupRoutes(api huma.API, store DataStore, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "register-tenant",
		Method:      http.MethodPost,
		Path:        "/tenants",
		Summary:     "Register a new tenant with its owner account",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *RegisterTenantInput) (*RegisterTenantOutput, error) {
		if _, err := store.Tenants().GetBySlug(ctx, input.Body.Slug); err == nil {
			return nil, huma.Error409Conflict("slug already taken")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error500InternalServerError("failed to check slug", err)
		}

		timezone := input.Body.Timezone
		if timezone == "" {
			timezone = "UTC"
		}

		now := time.Now()
		t := &domain.Tenant{
			ID:        uuid.New(),
			Name:      input.Body.Name,
			Slug:      input.Body.Slug,
			Plan:      billing.PlanSolo,
			Timezone:  timezone,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.Tenants().Create(ctx, t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("slug already taken")
			}
			return nil, huma.Error500InternalServerError("failed to create tenant", err)
		}

		owner, err := authSvc.Register(ctx, t.ID, input.Body.OwnerEmail, input.Body.OwnerPassword, input.Body.OwnerName, access.RoleOwner)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error409Conflict("user already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create owner account", err)
		}

		owner.PasswordHash = ""

		out := &RegisterTenantOutput{}
		out.Body.Tenant = t
		out.Body.Owner = owner
		return out, nil
	})
}

func RegisterTenantRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/tenant",
		Summary:     "Get the caller's tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *GetTenantInput) (*GetTenantOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		t, err := store.Tenants().GetByID(ctx, act.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to get tenant", err)
		}

		return &GetTenantOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPut,
		Path:        "/tenant",
		Summary:     "Update the caller's tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*UpdateTenantOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Administrative(), "update the tenant"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		existing, err := store.Tenants().GetByID(ctx, act.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("tenant not found")
			}
			return nil, huma.Error500InternalServerError("failed to get tenant", err)
		}

		if input.Body.Plan != "" {
			plan := billing.Plan(input.Body.Plan)
			if !plan.Valid() {
				return nil, huma.Error400BadRequest("unknown plan: " + input.Body.Plan)
			}
			existing.Plan = plan
		}
		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Timezone != "" {
			existing.Timezone = input.Body.Timezone
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tenants().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update tenant", err)
		}

		recordAudit(ctx, store, act, "update", "tenant", existing.ID, nil)

		return &UpdateTenantOutput{Body: existing}, nil
	})
}
