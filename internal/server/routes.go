package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/fieldsuite/fieldops/internal/api/v1"
	"github.com/fieldsuite/fieldops/internal/api/ws"
	"github.com/fieldsuite/fieldops/internal/auth"
	"github.com/fieldsuite/fieldops/internal/notify"
	"github.com/fieldsuite/fieldops/internal/store/postgres"
)

func registerPublicRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, store, authSvc)
	v1.RegisterTenantSignupRoutes(api, store, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, hub *ws.Hub, notifier *notify.Notifier) {
	v1.RegisterTenantRoutes(api, store)
	v1.RegisterUserRoutes(api, store, authSvc)
	v1.RegisterCustomerRoutes(api, store)
	v1.RegisterWorkOrderRoutes(api, store, hub, notifier)
	v1.RegisterInvoiceRoutes(api, store)
	v1.RegisterAppointmentRoutes(api, store)
	v1.RegisterReportRoutes(api, store)
}

func registerAuditRoutes(api huma.API, store *postgres.Store) {
	v1.RegisterAuditRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/feed", hub.ServeFeed)
}
