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

type InviteUserInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Initial password"` //nolint:gosec // G117: invite credential DTO
		Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Role     string `json:"role" minLength:"1" doc:"Access role"`
	}
}

type InviteUserOutput struct {
	Body *domain.User
}

type ListUsersInput struct{}

type ListUsersOutput struct {
	Body []*domain.User
}

type UpdateUserRoleInput struct {
	ID   uuid.UUID `path:"id" doc:"User ID"`
	Body struct {
		Role string `json:"role" minLength:"1" doc:"New access role"`
	}
}

type UpdateUserRoleOutput struct {
	Body *domain.User
}

type DeactivateUserInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

type CreateAPIKeyInput struct {
	Body struct {
		Name      string     `json:"name" minLength:"1" maxLength:"255" doc:"Key name"`
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Optional expiry"`
	}
}

type CreateAPIKeyOutput struct {
	Body struct {
		Key    string         `json:"key" doc:"Raw API key, shown once"` //nolint:gosec // G117: key issuance DTO
		Record *domain.APIKey `json:"record"`
	}
}

type ListAPIKeysInput struct{}

type ListAPIKeysOutput struct {
	Body []*domain.APIKey
}

type DeleteAPIKeyInput struct {
	ID uuid.UUID `path:"id" doc:"API key ID"`
}

func RegisterUserRoutes(api huma.API, store DataStore, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "invite-user",
		Method:      http.MethodPost,
		Path:        "/users",
		Summary:     "Invite a user into the tenant",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *InviteUserInput) (*InviteUserOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Administrative(), "invite users"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		role := access.Role(input.Body.Role)
		if !role.Valid() {
			return nil, huma.Error400BadRequest("unknown role: " + input.Body.Role)
		}

		tenant, err := store.Tenants().GetByID(ctx, act.TenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve tenant", err)
		}

		current, err := store.Users().CountByTenant(ctx, act.TenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count users", err)
		}
		if err := billing.CheckUserLimit(tenant.Plan, int(current)); err != nil {
			return nil, huma.Error409Conflict(err.Error())
		}

		user, err := authSvc.Register(ctx, act.TenantID, input.Body.Email, input.Body.Password, input.Body.Name, role)
		if err != nil {
			if errors.Is(err, auth.ErrUserAlreadyExists) {
				return nil, huma.Error409Conflict("user already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create user", err)
		}

		recordAudit(ctx, store, act, "create", "user", user.ID, map[string]any{"role": string(role)})

		user.PasswordHash = ""

		return &InviteUserOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List the tenant's users",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *ListUsersInput) (*ListUsersOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Managerial(), "list users"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		users, err := store.Users().List(ctx, act.TenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list users", err)
		}

		for _, u := range users {
			u.PasswordHash = ""
		}

		return &ListUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user-role",
		Method:      http.MethodPatch,
		Path:        "/users/{id}/role",
		Summary:     "Change a user's access role",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserRoleInput) (*UpdateUserRoleOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Administrative(), "change user roles"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		if input.ID == act.UserID {
			return nil, huma.Error400BadRequest("cannot change your own role")
		}

		role := access.Role(input.Body.Role)
		if !role.Valid() {
			return nil, huma.Error400BadRequest("unknown role: " + input.Body.Role)
		}

		user, err := store.Users().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		user.Role = role
		user.UpdatedAt = time.Now()

		if err := store.Users().Update(ctx, user); err != nil {
			return nil, huma.Error500InternalServerError("failed to update user", err)
		}

		recordAudit(ctx, store, act, "update", "user", user.ID, map[string]any{"role": string(role)})

		user.PasswordHash = ""

		return &UpdateUserRoleOutput{Body: user}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-user",
		Method:      http.MethodDelete,
		Path:        "/users/{id}",
		Summary:     "Deactivate a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *DeactivateUserInput) (*struct{}, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Administrative(), "deactivate users"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		if input.ID == act.UserID {
			return nil, huma.Error400BadRequest("cannot deactivate yourself")
		}

		user, err := store.Users().GetByID(ctx, act.TenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("user not found")
			}
			return nil, huma.Error500InternalServerError("failed to get user", err)
		}

		user.Active = false
		user.UpdatedAt = time.Now()

		if err := store.Users().Update(ctx, user); err != nil {
			return nil, huma.Error500InternalServerError("failed to deactivate user", err)
		}

		recordAudit(ctx, store, act, "delete", "user", user.ID, nil)

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-api-key",
		Method:      http.MethodPost,
		Path:        "/users/me/api-keys",
		Summary:     "Create an API key for the caller",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		rawKey, record, err := authSvc.GenerateAPIKey(ctx, act.TenantID, act.UserID, input.Body.Name, input.Body.ExpiresAt)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create API key", err)
		}

		recordAudit(ctx, store, act, "create", "api_key", record.ID, map[string]any{"name": record.Name})

		out := &CreateAPIKeyOutput{}
		out.Body.Key = rawKey
		out.Body.Record = record
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/users/me/api-keys",
		Summary:     "List the caller's API keys",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, _ *ListAPIKeysInput) (*ListAPIKeysOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		keys, err := store.Users().ListAPIKeys(ctx, act.TenantID, act.UserID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list API keys", err)
		}

		return &ListAPIKeysOutput{Body: keys}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/users/me/api-keys/{id}",
		Summary:     "Revoke one of the caller's API keys",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		keys, err := store.Users().ListAPIKeys(ctx, act.TenantID, act.UserID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list API keys", err)
		}

		owned := false
		for _, k := range keys {
			if k.ID == input.ID {
				owned = true
				break
			}
		}
		if !owned {
			return nil, huma.Error404NotFound("API key not found")
		}

		if err := store.Users().DeleteAPIKey(ctx, act.TenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("API key not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete API key", err)
		}

		recordAudit(ctx, store, act, "delete", "api_key", input.ID, nil)

		return nil, nil
	})
}
