package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsuite/fieldops/internal/domain"
	"github.com/fieldsuite/fieldops/internal/query"
)

//nolint:gochecknoglobals // static column map
var customerColumns = columnMap{
	query.FieldName:       "cu.name",
	query.FieldEmail:      "cu.email",
	query.FieldPhone:      "cu.phone",
	query.FieldAddress:    "cu.address",
	query.FieldCreatedBy:  "cu.created_by",
	query.FieldAssignedTo: "cu.assigned_to",
}

const customerSelect = `SELECT cu.id, cu.tenant_id, cu.name, cu.email, cu.phone, cu.address, cu.notes,
       cu.created_by, cu.assigned_to, cu.created_at, cu.updated_at
FROM customers cu`

type CustomerRepo struct {
	pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO customers (id, tenant_id, name, email, phone, address, notes,
		        created_by, assigned_to, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.TenantID, c.Name, c.Email, c.Phone, c.Address, c.Notes,
		c.CreatedByID, c.AssignedToID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("customerRepo.Create: %w", err)
	}

	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Customer, error) {
	row := r.pool.QueryRow(ctx,
		customerSelect+` WHERE cu.tenant_id = $1 AND cu.id = $2`,
		tenantID, id,
	)

	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customerRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("customerRepo.GetByID: %w", err)
	}

	return c, nil
}

func (r *CustomerRepo) Update(ctx context.Context, c *domain.Customer) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET name = $1, email = $2, phone = $3, address = $4, notes = $5,
		        assigned_to = $6, updated_at = now()
		 WHERE tenant_id = $7 AND id = $8`,
		c.Name, c.Email, c.Phone, c.Address, c.Notes,
		c.AssignedToID, c.TenantID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("customerRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customerRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CustomerRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM customers WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("customerRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customerRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CustomerRepo) List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.Customer, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, customerColumns, args)
	if err != nil {
		return nil, fmt.Errorf("customerRepo.List: %w", err)
	}

	cursor, args := cursorClause("cu", "customers", opts, 1, args)

	args = append(args, opts.Take)
	sql := fmt.Sprintf("%s WHERE cu.tenant_id = $1%s%s ORDER BY cu.created_at, cu.id LIMIT $%d",
		customerSelect, where, cursor, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("customerRepo.List: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		c, scanErr := scanCustomer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("customerRepo.List: scan: %w", scanErr)
		}
		customers = append(customers, c)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("customerRepo.List: rows: %w", rowsErr)
	}

	return customers, nil
}

func (r *CustomerRepo) Count(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, customerColumns, args)
	if err != nil {
		return 0, fmt.Errorf("customerRepo.Count: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers cu WHERE cu.tenant_id = $1`+where,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("customerRepo.Count: %w", err)
	}

	return count, nil
}

func (r *CustomerRepo) CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, dr query.DateRange) (int64, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, customerColumns, args)
	if err != nil {
		return 0, fmt.Errorf("customerRepo.CountCreatedBetween: %w", err)
	}

	args = append(args, dr.From, dr.To)

	var count int64
	err = r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM customers cu
		 WHERE cu.tenant_id = $1%s AND cu.created_at >= $%d AND cu.created_at < $%d`,
			where, len(args)-1, len(args)),
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("customerRepo.CountCreatedBetween: %w", err)
	}

	return count, nil
}

type customerScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row customerScanner) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes,
		&c.CreatedByID, &c.AssignedToID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
