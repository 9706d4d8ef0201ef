package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/api/ws"
	"github.com/fieldsuite/fieldops/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Users() domain.UserRepository
	Customers() domain.CustomerRepository
	WorkOrders() domain.WorkOrderRepository
	Invoices() domain.InvoiceRepository
	Appointments() domain.AppointmentRepository
	Audit() domain.AuditRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, tenantID uuid.UUID, email, password, name string, role access.Role) (*domain.User, error)
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	GenerateAPIKey(ctx context.Context, tenantID, userID uuid.UUID, name string, expiresAt *time.Time) (string, *domain.APIKey, error)
}

// EventPublisher pushes work-order lifecycle events to the tenant's live
// dispatch feed. *ws.Hub satisfies this interface.
type EventPublisher interface {
	PublishEvent(ctx context.Context, tenantID uuid.UUID, event ws.Event) error
}

// AssignmentNotifier delivers assignment notifications to users through
// their linked messenger account. *notify.Notifier satisfies this interface.
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, tenantID, userID uuid.UUID, message string) error
}
