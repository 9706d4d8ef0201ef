package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/fieldsuite/fieldops/internal/api/v1"
	"github.com/fieldsuite/fieldops/internal/domain"
)

func TestCreateAppointment(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	workOrderID := uuid.New()
	techID := uuid.New()
	start := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var createCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.workOrders = &mockWorkOrderRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.WorkOrder, error) {
				return &domain.WorkOrder{ID: workOrderID, TenantID: tenantID}, nil
			},
		}
		store.appointments = &mockAppointmentRepo{
			hasConflictFunc: func(_ context.Context, _, tech uuid.UUID, s, e time.Time, exclude uuid.UUID) (bool, error) {
				assert.Equal(t, techID, tech)
				assert.True(t, s.Equal(start))
				assert.True(t, e.Equal(end))
				assert.Equal(t, uuid.Nil, exclude)
				return false, nil
			},
			createFunc: func(_ context.Context, a *domain.Appointment) error {
				createCalled = true
				assert.Equal(t, domain.AppointmentStatusScheduled, a.Status)
				assert.Equal(t, techID, a.TechnicianID)
				return nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PostCtx(managerCtx(tenantID, uuid.New()), "/appointments", map[string]any{
			"work_order_id": workOrderID.String(),
			"technician_id": techID.String(),
			"starts_at":     start.Format(time.RFC3339),
			"ends_at":       end.Format(time.RFC3339),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, createCalled, "store.Appointments().Create must be invoked")
	})

	t.Run("overlap_conflict", func(t *testing.T) {
		t.Parallel()

		var createCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.workOrders = &mockWorkOrderRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.WorkOrder, error) {
				return &domain.WorkOrder{ID: workOrderID, TenantID: tenantID}, nil
			},
		}
		store.appointments = &mockAppointmentRepo{
			hasConflictFunc: func(_ context.Context, _, _ uuid.UUID, _, _ time.Time, _ uuid.UUID) (bool, error) {
				return true, nil
			},
			createFunc: func(_ context.Context, _ *domain.Appointment) error {
				createCalled = true
				return nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PostCtx(managerCtx(tenantID, uuid.New()), "/appointments", map[string]any{
			"work_order_id": workOrderID.String(),
			"technician_id": techID.String(),
			"starts_at":     start.Format(time.RFC3339),
			"ends_at":       end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.False(t, createCalled, "Create must NOT be called on a schedule conflict")
	})

	t.Run("inverted_window", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PostCtx(managerCtx(tenantID, uuid.New()), "/appointments", map[string]any{
			"work_order_id": workOrderID.String(),
			"technician_id": techID.String(),
			"starts_at":     end.Format(time.RFC3339),
			"ends_at":       start.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("forbidden_for_technician", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PostCtx(technicianCtx(tenantID, techID), "/appointments", map[string]any{
			"work_order_id": workOrderID.String(),
			"technician_id": techID.String(),
			"starts_at":     start.Format(time.RFC3339),
			"ends_at":       end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestListAppointments(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("manager_picks_technician", func(t *testing.T) {
		t.Parallel()

		techID := uuid.New()
		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			listByTechnicianFunc: func(_ context.Context, _, tech uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
				assert.Equal(t, techID, tech)
				assert.WithinDuration(t, from.AddDate(0, 0, 7), to, time.Second, "window defaults to 7 days")
				return []*domain.Appointment{{ID: uuid.New(), TechnicianID: tech}}, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.GetCtx(managerCtx(tenantID, uuid.New()), "/appointments?technician_id="+techID.String())

		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.Appointment
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body, 1)
	})

	t.Run("technician_forced_to_own_schedule", func(t *testing.T) {
		t.Parallel()

		techID := uuid.New()
		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			listByTechnicianFunc: func(_ context.Context, _, tech uuid.UUID, _, _ time.Time) ([]*domain.Appointment, error) {
				assert.Equal(t, techID, tech, "field staff must not read another technician's schedule")
				return nil, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.GetCtx(technicianCtx(tenantID, techID), "/appointments?technician_id="+uuid.New().String())

		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("manager_without_technician_id", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.GetCtx(managerCtx(tenantID, uuid.New()), "/appointments")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestListWorkOrderAppointments(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	workOrderID := uuid.New()

	t.Run("gated_by_work_order_visibility", func(t *testing.T) {
		t.Parallel()

		other := uuid.New()
		var listCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.workOrders = &mockWorkOrderRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.WorkOrder, error) {
				return &domain.WorkOrder{ID: workOrderID, TenantID: tenantID, AssignedToID: &other}, nil
			},
		}
		store.appointments = &mockAppointmentRepo{
			listByWorkOrderFunc: func(_ context.Context, _, _ uuid.UUID) ([]*domain.Appointment, error) {
				listCalled = true
				return nil, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.GetCtx(technicianCtx(tenantID, uuid.New()), "/work-orders/"+workOrderID.String()+"/appointments")

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.False(t, listCalled, "appointments must not be listed for an out-of-scope work order")
	})

	t.Run("manager_lists", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.workOrders = &mockWorkOrderRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.WorkOrder, error) {
				return &domain.WorkOrder{ID: workOrderID, TenantID: tenantID}, nil
			},
		}
		store.appointments = &mockAppointmentRepo{
			listByWorkOrderFunc: func(_ context.Context, _, id uuid.UUID) ([]*domain.Appointment, error) {
				assert.Equal(t, workOrderID, id)
				return []*domain.Appointment{{ID: uuid.New(), WorkOrderID: id}}, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.GetCtx(managerCtx(tenantID, uuid.New()), "/work-orders/"+workOrderID.String()+"/appointments")

		require.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestRescheduleAppointment(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	appointmentID := uuid.New()
	techID := uuid.New()
	start := time.Date(2026, 9, 3, 13, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("manager_moves_window", func(t *testing.T) {
		t.Parallel()

		var updateCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, TechnicianID: techID, Status: domain.AppointmentStatusScheduled}, nil
			},
			hasConflictFunc: func(_ context.Context, _, tech uuid.UUID, s, e time.Time, exclude uuid.UUID) (bool, error) {
				assert.Equal(t, techID, tech)
				assert.True(t, s.Equal(start))
				assert.True(t, e.Equal(end))
				assert.Equal(t, appointmentID, exclude, "the moved appointment must not conflict with itself")
				return false, nil
			},
			updateFunc: func(_ context.Context, a *domain.Appointment) error {
				updateCalled = true
				assert.True(t, a.StartsAt.Equal(start))
				assert.True(t, a.EndsAt.Equal(end))
				return nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String(), map[string]any{
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   end.Format(time.RFC3339),
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, updateCalled)
	})

	t.Run("overlap_conflict", func(t *testing.T) {
		t.Parallel()

		var updateCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, TechnicianID: techID, Status: domain.AppointmentStatusScheduled}, nil
			},
			hasConflictFunc: func(_ context.Context, _, _ uuid.UUID, _, _ time.Time, _ uuid.UUID) (bool, error) {
				return true, nil
			},
			updateFunc: func(_ context.Context, _ *domain.Appointment) error {
				updateCalled = true
				return nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String(), map[string]any{
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.False(t, updateCalled)
	})

	t.Run("non_scheduled_conflict", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, TechnicianID: techID, Status: domain.AppointmentStatusCompleted}, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String(), map[string]any{
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("inverted_window", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String(), map[string]any{
			"starts_at": end.Format(time.RFC3339),
			"ends_at":   start.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("forbidden_for_technician", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(technicianCtx(tenantID, techID), "/appointments/"+appointmentID.String(), map[string]any{
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+uuid.New().String(), map[string]any{
			"starts_at": start.Format(time.RFC3339),
			"ends_at":   end.Format(time.RFC3339),
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestTransitionAppointmentStatus(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	appointmentID := uuid.New()

	t.Run("owning_technician_completes", func(t *testing.T) {
		t.Parallel()

		techID := uuid.New()
		var updateCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, TechnicianID: techID, Status: domain.AppointmentStatusScheduled}, nil
			},
			updateFunc: func(_ context.Context, a *domain.Appointment) error {
				updateCalled = true
				assert.Equal(t, domain.AppointmentStatusCompleted, a.Status)
				return nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(technicianCtx(tenantID, techID), "/appointments/"+appointmentID.String()+"/status", map[string]any{
			"status": "completed",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, updateCalled)
	})

	t.Run("foreign_technician_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, TechnicianID: uuid.New(), Status: domain.AppointmentStatusScheduled}, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(technicianCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String()+"/status", map[string]any{
			"status": "no_show",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("cannot_return_to_scheduled", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, Status: domain.AppointmentStatusScheduled}, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String()+"/status", map[string]any{
			"status": "scheduled",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("already_terminal_conflict", func(t *testing.T) {
		t.Parallel()

		var updateCalled bool
		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, Status: domain.AppointmentStatusCancelled}, nil
			},
			updateFunc: func(_ context.Context, _ *domain.Appointment) error {
				updateCalled = true
				return nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String()+"/status", map[string]any{
			"status": "completed",
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.False(t, updateCalled)
	})

	t.Run("unknown_status", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := newMockStore()
		store.appointments = &mockAppointmentRepo{
			getByIDFunc: func(_ context.Context, _, _ uuid.UUID) (*domain.Appointment, error) {
				return &domain.Appointment{ID: appointmentID, TenantID: tenantID, Status: domain.AppointmentStatusScheduled}, nil
			},
		}
		v1.RegisterAppointmentRoutes(api, store)

		resp := api.PatchCtx(managerCtx(tenantID, uuid.New()), "/appointments/"+appointmentID.String()+"/status", map[string]any{
			"status": "rescheduled",
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}
