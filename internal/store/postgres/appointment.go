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
)

const appointmentSelect = `SELECT id, tenant_id, work_order_id, technician_id, starts_at, ends_at,
       status, notes, created_at, updated_at
FROM appointments`

type AppointmentRepo struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{pool: pool}
}

func (r *AppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO appointments (id, tenant_id, work_order_id, technician_id, starts_at, ends_at,
		        status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.TenantID, a.WorkOrderID, a.TechnicianID, a.StartsAt, a.EndsAt,
		a.Status, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointmentRepo.Create: %w", err)
	}

	return nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Appointment, error) {
	row := r.pool.QueryRow(ctx,
		appointmentSelect+` WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointmentRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("appointmentRepo.GetByID: %w", err)
	}

	return a, nil
}

func (r *AppointmentRepo) Update(ctx context.Context, a *domain.Appointment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET technician_id = $1, starts_at = $2, ends_at = $3,
		        status = $4, notes = $5, updated_at = now()
		 WHERE tenant_id = $6 AND id = $7`,
		a.TechnicianID, a.StartsAt, a.EndsAt, a.Status, a.Notes,
		a.TenantID, a.ID,
	)
	if err != nil {
		return fmt.Errorf("appointmentRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointmentRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *AppointmentRepo) ListByTechnician(ctx context.Context, tenantID, technicianID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
	rows, err := r.pool.Query(ctx,
		appointmentSelect+` WHERE tenant_id = $1 AND technician_id = $2
		 AND starts_at < $4 AND ends_at > $3
		 ORDER BY starts_at`,
		tenantID, technicianID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("appointmentRepo.ListByTechnician: %w", err)
	}
	defer rows.Close()

	return scanAppointments(rows, "appointmentRepo.ListByTechnician")
}

func (r *AppointmentRepo) ListByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]*domain.Appointment, error) {
	rows, err := r.pool.Query(ctx,
		appointmentSelect+` WHERE tenant_id = $1 AND work_order_id = $2 ORDER BY starts_at`,
		tenantID, workOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("appointmentRepo.ListByWorkOrder: %w", err)
	}
	defer rows.Close()

	return scanAppointments(rows, "appointmentRepo.ListByWorkOrder")
}

func (r *AppointmentRepo) HasConflict(ctx context.Context, tenantID, technicianID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) (bool, error) {
	var conflict bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM appointments
		    WHERE tenant_id = $1 AND technician_id = $2 AND status <> 'cancelled'
		      AND starts_at < $4 AND ends_at > $3
		      AND id <> $5
		 )`,
		tenantID, technicianID, startsAt, endsAt, excludeID,
	).Scan(&conflict)
	if err != nil {
		return false, fmt.Errorf("appointmentRepo.HasConflict: %w", err)
	}

	return conflict, nil
}

type appointmentScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row appointmentScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID, &a.TenantID, &a.WorkOrderID, &a.TechnicianID, &a.StartsAt, &a.EndsAt,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAppointments(rows pgx.Rows, caller string) ([]*domain.Appointment, error) {
	var appointments []*domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return appointments, nil
}
