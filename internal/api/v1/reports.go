package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fieldsuite/fieldops/internal/billing"
	"github.com/fieldsuite/fieldops/internal/domain"
	"github.com/fieldsuite/fieldops/internal/query"
)

// Dashboard report states. A tenant whose record is missing (e.g. deleted
// while sessions were live) yields a typed state instead of an error so the
// dashboard can render an onboarding prompt.
const (
	ReportStateOK                 = "ok"
	ReportStateNoTenantConfigured = "no_tenant_configured"
)

type DashboardInput struct {
	From time.Time `query:"from" doc:"Range start (default 30 days before range end)"`
	To   time.Time `query:"to" doc:"Range end (default now)"`
}

type DashboardReport struct {
	State string `json:"state" doc:"ok or no_tenant_configured"`

	WorkOrders      *domain.WorkOrderStats `json:"work_orders,omitempty"`
	WorkOrderGrowth *query.Growth          `json:"work_order_growth,omitempty"`

	Customers      *domain.CustomerStats `json:"customers,omitempty"`
	CustomerGrowth *query.Growth         `json:"customer_growth,omitempty"`

	Revenue *domain.RevenueStats `json:"revenue,omitempty"`
}

type DashboardOutput struct {
	Body *DashboardReport
}

func RegisterReportRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-report",
		Method:      http.MethodGet,
		Path:        "/reports/dashboard",
		Summary:     "Dashboard statistics under the caller's scope",
		Tags:        []string{"Reports"},
	}, func(ctx context.Context, input *DashboardInput) (*DashboardOutput, error) {
		act, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		tenant, err := store.Tenants().GetByID(ctx, act.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &DashboardOutput{Body: &DashboardReport{State: ReportStateNoTenantConfigured}}, nil
			}
			return nil, huma.Error500InternalServerError("failed to resolve tenant", err)
		}

		if !tenant.Plan.HasFeature(billing.FeatureReports) {
			return nil, huma.Error403Forbidden("plan does not include reports")
		}

		rng := query.DateRange{From: input.From, To: input.To}.Normalize(time.Now())
		prev := rng.Previous()

		report := &DashboardReport{State: ReportStateOK}

		woPred := query.NewWorkOrderFilter(act.Role, act.UserID).WithRoleScope().Build()

		woStats, err := store.WorkOrders().Stats(ctx, act.TenantID, woPred)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to aggregate work orders", err)
		}
		report.WorkOrders = woStats

		woCurrent, err := store.WorkOrders().CountCreatedBetween(ctx, act.TenantID, woPred, rng)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count work orders", err)
		}
		woPrevious, err := store.WorkOrders().CountCreatedBetween(ctx, act.TenantID, woPred, prev)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count work orders", err)
		}
		woGrowth := query.ComputeGrowth(woCurrent, woPrevious, rng)
		report.WorkOrderGrowth = &woGrowth

		custPred := query.NewCustomerFilter(act.Role, act.UserID).WithRoleScope().Build()

		custTotal, err := store.Customers().Count(ctx, act.TenantID, custPred)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count customers", err)
		}
		custCurrent, err := store.Customers().CountCreatedBetween(ctx, act.TenantID, custPred, rng)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count customers", err)
		}
		custPrevious, err := store.Customers().CountCreatedBetween(ctx, act.TenantID, custPred, prev)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count customers", err)
		}
		report.Customers = &domain.CustomerStats{Total: custTotal, NewCount: custCurrent}
		custGrowth := query.ComputeGrowth(custCurrent, custPrevious, rng)
		report.CustomerGrowth = &custGrowth

		invPred := query.NewInvoiceFilter(act.Role, act.UserID).WithRoleScope().Build()

		revenue, err := store.Invoices().Revenue(ctx, act.TenantID, invPred, rng)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to aggregate revenue", err)
		}
		report.Revenue = revenue

		return &DashboardOutput{Body: report}, nil
	})
}
