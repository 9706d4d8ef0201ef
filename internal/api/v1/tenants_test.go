package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsuite/fieldops/internal/access"
	v1 "github.com/fieldsuite/fieldops/internal/api/v1"
	"github.com/fieldsuite/fieldops/internal/billing"
	"github.com/fieldsuite/fieldops/internal/domain"
)

func TestRegisterTenant(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var tenantCreated bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			createFunc: func(_ context.Context, tn *domain.Tenant) error {
				tenantCreated = true
				assert.Equal(t, "acme-hvac", tn.Slug)
				assert.Equal(t, billing.PlanSolo, tn.Plan, "new tenants start on the solo plan")
				assert.Equal(t, "UTC", tn.Timezone, "timezone defaults to UTC")
				return nil
			},
		}
		authSvc := &mockAuthService{
			registerFunc: func(_ context.Context, tenantID uuid.UUID, email, _, name string, role access.Role) (*domain.User, error) {
				assert.Equal(t, access.RoleOwner, role, "the first account must be the owner")
				return &domain.User{
					ID: uuid.New(), TenantID: tenantID, Email: email, Name: name,
					Role: role, Active: true, PasswordHash: "secret",
				}, nil
			},
		}
		v1.RegisterTenantSignupRoutes(api, store, authSvc)

		resp := api.Post("/tenants", map[string]any{
			"name":           "Acme HVAC",
			"slug":           "acme-hvac",
			"owner_email":    "owner@acme.test",
			"owner_password": "longenough",
			"owner_name":     "Pat Owner",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, tenantCreated)

		var body struct {
			Tenant *domain.Tenant `json:"tenant"`
			Owner  *domain.User   `json:"owner"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.Owner)
		assert.Empty(t, body.Owner.PasswordHash, "password hash must never leave the server")
	})

	t.Run("slug_taken", func(t *testing.T) {
		t.Parallel()

		var tenantCreated bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			getBySlugFunc: func(_ context.Context, slug string) (*domain.Tenant, error) {
				return &domain.Tenant{ID: uuid.New(), Slug: slug}, nil
			},
			createFunc: func(_ context.Context, _ *domain.Tenant) error {
				tenantCreated = true
				return nil
			},
		}
		authSvc := &mockAuthService{}
		v1.RegisterTenantSignupRoutes(api, store, authSvc)

		resp := api.Post("/tenants", map[string]any{
			"name":           "Copy Cat",
			"slug":           "acme-hvac",
			"owner_email":    "owner@copy.test",
			"owner_password": "longenough",
			"owner_name":     "Copy Cat",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.False(t, tenantCreated, "Create must NOT be called when the slug is taken")
	})

	t.Run("create_race_conflict", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			createFunc: func(_ context.Context, _ *domain.Tenant) error {
				return domain.ErrConflict
			},
		}
		authSvc := &mockAuthService{}
		v1.RegisterTenantSignupRoutes(api, store, authSvc)

		resp := api.Post("/tenants", map[string]any{
			"name":           "Racer",
			"slug":           "racer",
			"owner_email":    "owner@racer.test",
			"owner_password": "longenough",
			"owner_name":     "Racer",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("invalid_slug_rejected", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterTenantSignupRoutes(api, store, &mockAuthService{})

		resp := api.Post("/tenants", map[string]any{
			"name":           "Bad Slug",
			"slug":           "Bad Slug!",
			"owner_email":    "owner@bad.test",
			"owner_password": "longenough",
			"owner_name":     "Bad",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestGetTenant(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("any_role_may_read", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
				return &domain.Tenant{ID: id, Name: "Acme", Slug: "acme", Plan: billing.PlanTeam}, nil
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.GetCtx(clientCtx(tenantID, uuid.New()), "/tenant")

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Tenant
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "acme", body.Slug)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterTenantRoutes(api, store)

		resp := api.GetCtx(managerCtx(tenantID, uuid.New()), "/tenant")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestUpdateTenant(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("owner_changes_plan", func(t *testing.T) {
		t.Parallel()

		var updateCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
				return &domain.Tenant{ID: id, Name: "Acme", Plan: billing.PlanSolo}, nil
			},
			updateFunc: func(_ context.Context, tn *domain.Tenant) error {
				updateCalled = true
				assert.Equal(t, billing.PlanBusiness, tn.Plan)
				assert.Equal(t, "Acme", tn.Name, "unset fields must be left untouched")
				return nil
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.PutCtx(ownerCtx(tenantID, uuid.New()), "/tenant", map[string]any{
			"plan": "business",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, updateCalled)
	})

	t.Run("unknown_plan", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
				return &domain.Tenant{ID: id, Plan: billing.PlanSolo}, nil
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.PutCtx(ownerCtx(tenantID, uuid.New()), "/tenant", map[string]any{
			"plan": "platinum",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("forbidden_for_manager", func(t *testing.T) {
		t.Parallel()

		var updateCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.tenants = &mockTenantRepo{
			updateFunc: func(_ context.Context, _ *domain.Tenant) error {
				updateCalled = true
				return nil
			},
		}
		v1.RegisterTenantRoutes(api, store)

		resp := api.PutCtx(managerCtx(tenantID, uuid.New()), "/tenant", map[string]any{
			"name": "Renamed",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code, "tenant settings require an administrative role")
		assert.False(t, updateCalled)
	})
}
