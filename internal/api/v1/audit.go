package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/domain"
)

type ListAuditInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"500" default:"100" doc:"Max entries"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

type ListResourceAuditInput struct {
	Resource string    `path:"resource" doc:"Resource kind (work_order, customer, invoice, ...)"`
	ID       uuid.UUID `path:"id" doc:"Resource ID"`
}

type ListResourceAuditOutput struct {
	Body []*domain.AuditEntry
}

func RegisterAuditRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-entries",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List recent audit entries for the tenant",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Administrative(), "read the audit log"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		entries, err := store.Audit().ListByTenant(ctx, act.TenantID, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListAuditOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-resource-audit-entries",
		Method:      http.MethodGet,
		Path:        "/audit/{resource}/{id}",
		Summary:     "List audit entries for one resource",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListResourceAuditInput) (*ListResourceAuditOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := access.RequirePermission(act.Role, access.Administrative(), "read the audit log"); err != nil {
			return nil, huma.Error403Forbidden(err.Error())
		}

		entries, err := store.Audit().ListByResource(ctx, act.TenantID, input.Resource, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListResourceAuditOutput{Body: entries}, nil
	})
}
