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

// workOrderColumns maps filter fields to columns of the listing query, which
// joins customers for client-scoped visibility and customer-name search.
//
//nolint:gochecknoglobals // static column map
var workOrderColumns = columnMap{
	query.FieldStatus:            "w.status",
	query.FieldType:              "w.type",
	query.FieldPriority:          "w.priority",
	query.FieldAssignedTo:        "w.assigned_to",
	query.FieldCustomerID:        "w.customer_id",
	query.FieldCustomerCreatedBy: "c.created_by",
	query.FieldTitle:             "w.title",
	query.FieldDescription:       "w.description",
	query.FieldLocation:          "w.location",
	query.FieldCustomerName:      "c.name",
}

const workOrderSelect = `SELECT w.id, w.tenant_id, w.customer_id, w.title, w.description, w.location,
       w.status, w.type, w.priority, w.assigned_to, w.created_by,
       w.scheduled_at, w.completed_at, w.created_at, w.updated_at
FROM work_orders w
JOIN customers c ON c.id = w.customer_id AND c.tenant_id = w.tenant_id`

type WorkOrderRepo struct {
	pool *pgxpool.Pool
}

func NewWorkOrderRepo(pool *pgxpool.Pool) *WorkOrderRepo {
	return &WorkOrderRepo{pool: pool}
}

func (r *WorkOrderRepo) Create(ctx context.Context, w *domain.WorkOrder) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO work_orders (id, tenant_id, customer_id, title, description, location,
		        status, type, priority, assigned_to, created_by, scheduled_at, completed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		w.ID, w.TenantID, w.CustomerID, w.Title, w.Description, w.Location,
		w.Status, w.Type, w.Priority, w.AssignedToID, w.CreatedByID,
		w.ScheduledAt, w.CompletedAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("workOrderRepo.Create: %w", err)
	}

	return nil
}

func (r *WorkOrderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkOrder, error) {
	row := r.pool.QueryRow(ctx,
		workOrderSelect+` WHERE w.tenant_id = $1 AND w.id = $2`,
		tenantID, id,
	)

	w, err := scanWorkOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workOrderRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("workOrderRepo.GetByID: %w", err)
	}

	return w, nil
}

func (r *WorkOrderRepo) Update(ctx context.Context, w *domain.WorkOrder) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_orders SET customer_id = $1, title = $2, description = $3, location = $4,
		        type = $5, priority = $6, assigned_to = $7, scheduled_at = $8, updated_at = now()
		 WHERE tenant_id = $9 AND id = $10`,
		w.CustomerID, w.Title, w.Description, w.Location,
		w.Type, w.Priority, w.AssignedToID, w.ScheduledAt,
		w.TenantID, w.ID,
	)
	if err != nil {
		return fmt.Errorf("workOrderRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workOrderRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *WorkOrderRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.WorkOrderStatus, completedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_orders SET status = $1, completed_at = $2, updated_at = now()
		 WHERE tenant_id = $3 AND id = $4`,
		status, completedAt, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("workOrderRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workOrderRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *WorkOrderRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM work_orders WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("workOrderRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workOrderRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *WorkOrderRepo) List(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, opts query.PageOptions) ([]*domain.WorkOrder, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, workOrderColumns, args)
	if err != nil {
		return nil, fmt.Errorf("workOrderRepo.List: %w", err)
	}

	cursor, args := cursorClause("w", "work_orders", opts, 1, args)

	args = append(args, opts.Take)
	sql := fmt.Sprintf("%s WHERE w.tenant_id = $1%s%s ORDER BY w.created_at, w.id LIMIT $%d",
		workOrderSelect, where, cursor, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("workOrderRepo.List: %w", err)
	}
	defer rows.Close()

	return scanWorkOrders(rows, "workOrderRepo.List")
}

func (r *WorkOrderRepo) Count(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (int64, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, workOrderColumns, args)
	if err != nil {
		return 0, fmt.Errorf("workOrderRepo.Count: %w", err)
	}

	var count int64
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM work_orders w
		 JOIN customers c ON c.id = w.customer_id AND c.tenant_id = w.tenant_id
		 WHERE w.tenant_id = $1`+where,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("workOrderRepo.Count: %w", err)
	}

	return count, nil
}

func (r *WorkOrderRepo) CountCreatedBetween(ctx context.Context, tenantID uuid.UUID, pred query.Predicate, dr query.DateRange) (int64, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, workOrderColumns, args)
	if err != nil {
		return 0, fmt.Errorf("workOrderRepo.CountCreatedBetween: %w", err)
	}

	args = append(args, dr.From, dr.To)

	var count int64
	err = r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM work_orders w
		 JOIN customers c ON c.id = w.customer_id AND c.tenant_id = w.tenant_id
		 WHERE w.tenant_id = $1%s AND w.created_at >= $%d AND w.created_at < $%d`,
			where, len(args)-1, len(args)),
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("workOrderRepo.CountCreatedBetween: %w", err)
	}

	return count, nil
}

// Stats groups the scoped work orders by status and by type. The caller's
// predicate carries the role scope, so stats and listings can never diverge.
func (r *WorkOrderRepo) Stats(ctx context.Context, tenantID uuid.UUID, pred query.Predicate) (*domain.WorkOrderStats, error) {
	args := []any{tenantID}

	where, args, err := compilePredicate(pred, workOrderColumns, args)
	if err != nil {
		return nil, fmt.Errorf("workOrderRepo.Stats: %w", err)
	}

	stats := &domain.WorkOrderStats{
		ByStatus: make(map[domain.WorkOrderStatus]int64),
		ByType:   make(map[domain.WorkOrderType]int64),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT w.status, COUNT(*) FROM work_orders w
		 JOIN customers c ON c.id = w.customer_id AND c.tenant_id = w.tenant_id
		 WHERE w.tenant_id = $1`+where+` GROUP BY w.status`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("workOrderRepo.Stats: by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.WorkOrderStatus
		var count int64
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("workOrderRepo.Stats: scan status: %w", scanErr)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("workOrderRepo.Stats: rows: %w", rowsErr)
	}

	typeRows, err := r.pool.Query(ctx,
		`SELECT w.type, COUNT(*) FROM work_orders w
		 JOIN customers c ON c.id = w.customer_id AND c.tenant_id = w.tenant_id
		 WHERE w.tenant_id = $1`+where+` GROUP BY w.type`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("workOrderRepo.Stats: by type: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var t domain.WorkOrderType
		var count int64
		if scanErr := typeRows.Scan(&t, &count); scanErr != nil {
			return nil, fmt.Errorf("workOrderRepo.Stats: scan type: %w", scanErr)
		}
		stats.ByType[t] = count
	}
	if rowsErr := typeRows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("workOrderRepo.Stats: rows: %w", rowsErr)
	}

	return stats, nil
}

type workOrderScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row workOrderScanner) (*domain.WorkOrder, error) {
	var w domain.WorkOrder
	err := row.Scan(
		&w.ID, &w.TenantID, &w.CustomerID, &w.Title, &w.Description, &w.Location,
		&w.Status, &w.Type, &w.Priority, &w.AssignedToID, &w.CreatedByID,
		&w.ScheduledAt, &w.CompletedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWorkOrders(rows pgx.Rows, caller string) ([]*domain.WorkOrder, error) {
	var orders []*domain.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		orders = append(orders, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return orders, nil
}
