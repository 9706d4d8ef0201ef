package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsuite/fieldops/internal/access"
	"github.com/fieldsuite/fieldops/internal/api/ws"
	"github.com/fieldsuite/fieldops/internal/domain"
	"github.com/fieldsuite/fieldops/internal/query"
	"github.com/fieldsuite/fieldops/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/user/role into context for DoCtx
// ---------------------------------------------------------------------------

func actorCtx(tenantID, userID uuid.UUID, role access.Role) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, role)
	return ctx
}

func managerCtx(tenantID, userID uuid.UUID) context.Context {
	return actorCtx(tenantID, userID, access.RoleManager)
}

func ownerCtx(tenantID, userID uuid.UUID) context.Context {
	return actorCtx(tenantID, userID, access.RoleOwner)
}

func technicianCtx(tenantID, userID uuid.UUID) context.Context {
	return actorCtx(tenantID, userID, access.RoleTechnician)
}

func clientCtx(tenantID, userID uuid.UUID) context.Context {
	return actorCtx(tenantID, userID, access.RoleClient)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants      domain.TenantRepository
	users        domain.UserRepository
	customers    domain.CustomerRepository
	workOrders   domain.WorkOrderRepository
	invoices     domain.InvoiceRepository
	appointments domain.AppointmentRepository
	audit        domain.AuditRepository
}

// newMockStore returns a store whose unset repositories are inert. Handlers
// always write audit entries, so tests that do not care about audit get a
// no-op repo instead of a nil panic.
func newMockStore() *mockDataStore {
	return &mockDataStore{
		tenants:      &mockTenantRepo{},
		users:        &mockUserRepo{},
		customers:    &mockCustomerRepo{},
		workOrders:   &mockWorkOrderRepo{},
		invoices:     &mockInvoiceRepo{},
		appointments: &mockAppointmentRepo{},
		audit:        &mockAuditRepo{},
	}
}

func (m *mockDataStore) Tenants() domain.TenantRepository           { return m.tenants }
func (m *mockDataStore) Users() domain.UserRepository               { return m.users }
func (m *mockDataStore) Customers() domain.CustomerRepository       { return m.customers }
func (m *mockDataStore) WorkOrders() domain.WorkOrderRepository     { return m.workOrders }
func (m *mockDataStore) Invoices() domain.InvoiceRepository         { return m.invoices }
func (m *mockDataStore) Appointments() domain.AppointmentRepository { return m.appointments }
func (m *mockDataStore) Audit() domain.AuditRepository              { return m.audit }

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc    func(ctx context.Context, t *domain.Tenant) error
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	getBySlugFunc func(ctx context.Context, slug string) (*domain.Tenant, error)
	updateFunc    func(ctx context.Context, t *domain.Tenant) error
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	if m.getByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	if m.getBySlugFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, t)
}

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc              func(ctx context.Context, u *domain.User) error
	getByIDFunc             func(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error)
	getByEmailFunc          func(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error)
	updateFunc              func(ctx context.Context, u *domain.User) error
	listFunc                func(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error)
	countByTenantFunc       func(ctx context.Context, tenantID uuid.UUID) (int64, error)
	createAPIKeyFunc        func(ctx context.Context, key *domain.APIKey) error
	getAPIKeyByPrefixFunc   func(ctx context.Context, prefix string) (*domain.APIKey, error)
	listAPIKeysFunc         func(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.APIKey, error)
	deleteAPIKeyFunc        func(ctx context.Context, tenantID, id uuid.UUID) error
	updateAPIKeyLastUsedFun func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	if m.getByEmailFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByEmailFunc(ctx, tenantID, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, tenantID)
}

func (m *mockUserRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if m.countByTenantFunc == nil {
		return 0, nil
	}
	return m.countByTenantFunc(ctx, tenantID)
}

func (m *mockUserRepo) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	if m.createAPIKeyFunc == nil {
		return nil
	}
	return m.createAPIKeyFunc(ctx, key)
}

func (m *mockUserRepo) GetAPIKeyByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	if m.getAPIKeyByPrefixFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getAPIKeyByPrefixFunc(ctx, prefix)
}

func (m *mockUserRepo) ListAPIKeys(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.APIKey, error) {
	if m.listAPIKeysFunc == nil {
		return nil, nil
	}
	return m.listAPIKeysFunc(ctx, tenantID, userID)
}

func (m *mockUserRepo) DeleteAPIKey(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.deleteAPIKeyFunc == nil {
		return nil
	}
	return m.deleteAPIKeyFunc(ctx, tenantID, id)
}

func (m *mockUserRepo) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	if m.updateAPIKeyLastUsedFun == nil {
		return nil
	}
	return m.updateAPIKeyLastUsedFun(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock CustomerRepository
// ---------------------------------------------------------------------------

type mockCustomerRepo struct {
	createFunc              func(ctx context.Context, c *domain.Customer) error
	getByIDFunc             func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error)
	updateFunc              func(ctx context.Context, c *domain.Customer) error
	deleteFunc              func(ctx context.Context, tenantID, id uuid.UUID) error
	listFunc                func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.Customer, error)
	countFunc               func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error)
	countCreatedBetweenFunc func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (int64, error)
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, c)
}

func (m *mockCustomerRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error) {
	if m.getByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, c)
}

func (m *mockCustomerRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockCustomerRepo) List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.Customer, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, tenantID, pred, opts)
}

func (m *mockCustomerRepo) Count(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error) {
	if m.countFunc == nil {
		return 0, nil
	}
	return m.countFunc(ctx, tenantID, pred)
}

func (m *mockCustomerRepo) CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (int64, error) {
	if m.countCreatedBetweenFunc == nil {
		return 0, nil
	}
	return m.countCreatedBetweenFunc(ctx, tenantID, pred, r)
}

// ---------------------------------------------------------------------------
// Mock WorkOrderRepository
// ---------------------------------------------------------------------------

type mockWorkOrderRepo struct {
	createFunc              func(ctx context.Context, w *domain.WorkOrder) error
	getByIDFunc             func(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkOrder, error)
	updateFunc              func(ctx context.Context, w *domain.WorkOrder) error
	updateStatusFunc        func(ctx context.Context, tenantID, id uuid.UUID, status domain.WorkOrderStatus, completedAt *time.Time) error
	deleteFunc              func(ctx context.Context, tenantID, id uuid.UUID) error
	listFunc                func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.WorkOrder, error)
	countFunc               func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error)
	countCreatedBetweenFunc func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (int64, error)
	statsFunc               func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (*domain.WorkOrderStats, error)
}

func (m *mockWorkOrderRepo) Create(ctx context.Context, w *domain.WorkOrder) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, w)
}

func (m *mockWorkOrderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkOrder, error) {
	if m.getByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockWorkOrderRepo) Update(ctx context.Context, w *domain.WorkOrder) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, w)
}

func (m *mockWorkOrderRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.WorkOrderStatus, completedAt *time.Time) error {
	if m.updateStatusFunc == nil {
		return nil
	}
	return m.updateStatusFunc(ctx, tenantID, id, status, completedAt)
}

func (m *mockWorkOrderRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockWorkOrderRepo) List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.WorkOrder, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, tenantID, pred, opts)
}

func (m *mockWorkOrderRepo) Count(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error) {
	if m.countFunc == nil {
		return 0, nil
	}
	return m.countFunc(ctx, tenantID, pred)
}

func (m *mockWorkOrderRepo) CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (int64, error) {
	if m.countCreatedBetweenFunc == nil {
		return 0, nil
	}
	return m.countCreatedBetweenFunc(ctx, tenantID, pred, r)
}

func (m *mockWorkOrderRepo) Stats(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (*domain.WorkOrderStats, error) {
	if m.statsFunc == nil {
		return &domain.WorkOrderStats{}, nil
	}
	return m.statsFunc(ctx, tenantID, pred)
}

// ---------------------------------------------------------------------------
// Mock InvoiceRepository
// ---------------------------------------------------------------------------

type mockInvoiceRepo struct {
	createFunc       func(ctx context.Context, inv *domain.Invoice) error
	getByIDFunc      func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error)
	updateStatusFunc func(ctx context.Context, tenantID, id uuid.UUID, status domain.InvoiceStatus, paidAt *time.Time) error
	listFunc         func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.Invoice, error)
	revenueFunc      func(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (*domain.RevenueStats, error)
	nextNumberFunc   func(ctx context.Context, tenantID uuid.UUID) (string, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, inv)
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error) {
	if m.getByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.InvoiceStatus, paidAt *time.Time) error {
	if m.updateStatusFunc == nil {
		return nil
	}
	return m.updateStatusFunc(ctx, tenantID, id, status, paidAt)
}

func (m *mockInvoiceRepo) List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.Invoice, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, tenantID, pred, opts)
}

func (m *mockInvoiceRepo) Revenue(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, r query.DateRange) (*domain.RevenueStats, error) {
	if m.revenueFunc == nil {
		return &domain.RevenueStats{}, nil
	}
	return m.revenueFunc(ctx, tenantID, pred, r)
}

func (m *mockInvoiceRepo) NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	if m.nextNumberFunc == nil {
		return "INV-2026-00001", nil
	}
	return m.nextNumberFunc(ctx, tenantID)
}

// ---------------------------------------------------------------------------
// Mock AppointmentRepository
// ---------------------------------------------------------------------------

type mockAppointmentRepo struct {
	createFunc           func(ctx context.Context, a *domain.Appointment) error
	getByIDFunc          func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Appointment, error)
	updateFunc           func(ctx context.Context, a *domain.Appointment) error
	listByTechnicianFunc func(ctx context.Context, tenantID, technicianID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error)
	listByWorkOrderFunc  func(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]*domain.Appointment, error)
	hasConflictFunc      func(ctx context.Context, tenantID, technicianID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (bool, error)
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, a)
}

func (m *mockAppointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Appointment, error) {
	if m.getByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockAppointmentRepo) Update(ctx context.Context, a *domain.Appointment) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, a)
}

func (m *mockAppointmentRepo) ListByTechnician(ctx context.Context, tenantID, technicianID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
	if m.listByTechnicianFunc == nil {
		return nil, nil
	}
	return m.listByTechnicianFunc(ctx, tenantID, technicianID, from, to)
}

func (m *mockAppointmentRepo) ListByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]*domain.Appointment, error) {
	if m.listByWorkOrderFunc == nil {
		return nil, nil
	}
	return m.listByWorkOrderFunc(ctx, tenantID, workOrderID)
}

func (m *mockAppointmentRepo) HasConflict(ctx context.Context, tenantID, technicianID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (bool, error) {
	if m.hasConflictFunc == nil {
		return false, nil
	}
	return m.hasConflictFunc(ctx, tenantID, technicianID, startsAt, endsAt, excludeID)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	recordFunc         func(ctx context.Context, entry *domain.AuditEntry) error
	listByTenantFunc   func(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.AuditEntry, error)
	listByResourceFunc func(ctx context.Context, tenantID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if m.recordFunc == nil {
		return nil
	}
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.AuditEntry, error) {
	if m.listByTenantFunc == nil {
		return nil, nil
	}
	return m.listByTenantFunc(ctx, tenantID, limit)
}

func (m *mockAuditRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	if m.listByResourceFunc == nil {
		return nil, nil
	}
	return m.listByResourceFunc(ctx, tenantID, resource, resourceID)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc       func(ctx context.Context, tenantID uuid.UUID, email, password, name string, role access.Role) (*domain.User, error)
	loginFunc          func(ctx context.Context, tenantID uuid.UUID, email, password string) (string, string, error)
	refreshTokenFunc   func(ctx context.Context, refreshToken string) (string, error)
	generateAPIKeyFunc func(ctx context.Context, tenantID, userID uuid.UUID, name string, expiresAt *time.Time) (string, *domain.APIKey, error)
}

func (m *mockAuthService) Register(ctx context.Context, tenantID uuid.UUID, email, password, name string, role access.Role) (*domain.User, error) {
	return m.registerFunc(ctx, tenantID, email, password, name, role)
}

func (m *mockAuthService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, tenantID, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) GenerateAPIKey(ctx context.Context, tenantID, userID uuid.UUID, name string, expiresAt *time.Time) (string, *domain.APIKey, error) {
	return m.generateAPIKeyFunc(ctx, tenantID, userID, name, expiresAt)
}

// ---------------------------------------------------------------------------
// Mock EventPublisher and AssignmentNotifier
// ---------------------------------------------------------------------------

type mockEventPublisher struct {
	events []ws.Event
	err    error
}

func (m *mockEventPublisher) PublishEvent(_ context.Context, _ uuid.UUID, event ws.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type notifiedUser struct {
	UserID  uuid.UUID
	Message string
}

type mockNotifier struct {
	notified []notifiedUser
	err      error
}

func (m *mockNotifier) NotifyAssignment(_ context.Context, _ uuid.UUID, userID uuid.UUID, message string) error {
	if m.err != nil {
		return m.err
	}
	m.notified = append(m.notified, notifiedUser{UserID: userID, Message: message})
	return nil
}
