package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsuite/fieldops/internal/domain"
)

type Store struct {
	pool         *pgxpool.Pool
	tenants      *TenantRepo
	users        *UserRepo
	customers    *CustomerRepo
	workOrders   *WorkOrderRepo
	invoices     *InvoiceRepo
	appointments *AppointmentRepo
	audit        *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:         pool,
		tenants:      NewTenantRepo(pool),
		users:        NewUserRepo(pool),
		customers:    NewCustomerRepo(pool),
		workOrders:   NewWorkOrderRepo(pool),
		invoices:     NewInvoiceRepo(pool),
		appointments: NewAppointmentRepo(pool),
		audit:        NewAuditRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tenants() domain.TenantRepository           { return s.tenants }
func (s *Store) Users() domain.UserRepository               { return s.users }
func (s *Store) Customers() domain.CustomerRepository       { return s.customers }
func (s *Store) WorkOrders() domain.WorkOrderRepository     { return s.workOrders }
func (s *Store) Invoices() domain.InvoiceRepository         { return s.invoices }
func (s *Store) Appointments() domain.AppointmentRepository { return s.appointments }
func (s *Store) Audit() domain.AuditRepository              { return s.audit }
