package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsuite/fieldops/internal/domain"
	"github.com/fieldsuite/fieldops/internal/query"
)

// invoiceColumns joins customers for client scoping/search and work orders
// for field-staff scoping.
//
//nolint:gochecknoglobals // static column map
var invoiceColumns = columnMap{
	query.FieldStatus:            "i.status",
	query.FieldCustomerID:        "i.customer_id",
	query.FieldWorkOrderID:       "i.work_order_id",
	query.FieldNumber:            "i.number",
	query.FieldCustomerName:      "c.name",
	query.FieldCustomerCreatedBy: "c.created_by",
	query.FieldAssignedTo:        "w.assigned_to",
}

const invoiceSelect = `SELECT i.id, i.tenant_id, i.work_order_id, i.customer_id, i.number, i.status,
       i.amount_cents, i.tax_cents, i.due_at, i.paid_at, i.created_at, i.updated_at
FROM invoices i
JOIN customers c ON c.id = i.customer_id AND c.tenant_id = i.tenant_id
JOIN work_orders w ON w.id = i.work_order_id AND w.tenant_id = i.tenant_id`

type InvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invoices (id, tenant_id, work_order_id, customer_id, number, status,
		        amount_cents, tax_cents, due_at, paid_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		inv.ID, inv.TenantID, inv.WorkOrderID, inv.CustomerID, inv.Number, inv.Status,
		inv.AmountCents, inv.TaxCents, inv.DueAt, inv.PaidAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}

	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Invoice, error) {
	row := r.pool.QueryRow(ctx,
		invoiceSelect+` WHERE i.tenant_id = $1 AND i.id = $2`,
		tenantID, id,
	)

	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}

	return inv, nil
}

func (r *InvoiceRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.InvoiceStatus, paidAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $1, paid_at = $2, updated_at = now()
		 WHERE tenant_id = $3 AND id = $4`,
		status, paidAt, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoiceRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *InvoiceRepo) List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.Invoice, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, invoiceColumns, args)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.List: %w", err)
	}

	cursor, args := cursorClause("i", "invoices", opts, 1, args)

	args = append(args, opts.Take)
	sql := fmt.Sprintf("%s WHERE i.tenant_id = $1%s%s ORDER BY i.created_at, i.id LIMIT $%d",
		invoiceSelect, where, cursor, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, scanErr := scanInvoice(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("invoiceRepo.List: scan: %w", scanErr)
		}
		invoices = append(invoices, inv)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("invoiceRepo.List: rows: %w", rowsErr)
	}

	return invoices, nil
}

// Revenue aggregates invoice totals created within the range, under the
// caller's scope predicate. Void invoices are excluded from all sums.
func (r *InvoiceRepo) Revenue(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, dr query.DateRange) (*domain.RevenueStats, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, invoiceColumns, args)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.Revenue: %w", err)
	}

	args = append(args, dr.From, dr.To)

	var stats domain.RevenueStats
	err = r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT
		    COALESCE(SUM(i.amount_cents + i.tax_cents) FILTER (WHERE i.status <> 'void'), 0),
		    COALESCE(SUM(i.amount_cents + i.tax_cents) FILTER (WHERE i.status = 'paid'), 0),
		    COALESCE(SUM(i.amount_cents + i.tax_cents) FILTER (WHERE i.status IN ('sent', 'overdue')), 0),
		    COUNT(*) FILTER (WHERE i.status <> 'void')
		 FROM invoices i
		 JOIN customers c ON c.id = i.customer_id AND c.tenant_id = i.tenant_id
		 JOIN work_orders w ON w.id = i.work_order_id AND w.tenant_id = i.tenant_id
		 WHERE i.tenant_id = $1%s AND i.created_at >= $%d AND i.created_at < $%d`,
			where, len(args)-1, len(args)),
		args...,
	).Scan(&stats.TotalCents, &stats.PaidCents, &stats.OutstandingCents, &stats.InvoiceCount)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.Revenue: %w", err)
	}

	return &stats, nil
}

// NextNumber allocates the next invoice number for a tenant, e.g.
// "INV-2026-00042". Numbers are per tenant and per year.
func (r *InvoiceRepo) NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx,
		`SELECT 'INV-' || to_char(now(), 'YYYY') || '-' || lpad((COUNT(*) + 1)::text, 5, '0')
		 FROM invoices
		 WHERE tenant_id = $1 AND date_part('year', created_at) = date_part('year', now())`,
		tenantID,
	).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("invoiceRepo.NextNumber: %w", err)
	}

	return number, nil
}

type invoiceScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row invoiceScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.WorkOrderID, &inv.CustomerID, &inv.Number, &inv.Status,
		&inv.AmountCents, &inv.TaxCents, &inv.DueAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
