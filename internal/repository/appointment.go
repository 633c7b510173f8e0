package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
)

const appointmentsTable = "appointments"

type AppointmentRepository struct {
	db DBTX
}

func NewAppointmentRepository(db DBTX) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create books a PENDING appointment. Date and time are read from the slot
// in the same statement; the booking trigger marks the slot as taken.
func (r *AppointmentRepository) Create(ctx context.Context, a appointment.NewAppointment) (int64, error) {
	query := `INSERT INTO appointments (
			patient_id, doctor_id, department_id, slot_id,
			appointment_date, appointment_time, reason, is_emergency, status
		)
		SELECT @patient_id, @doctor_id, @department_id, s.id,
			s.available_date, s.start_time, @reason, @is_emergency, 'PENDING'
		FROM doctor_available_slots s
		WHERE s.id = @slot_id
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query, pgx.NamedArgs{
		"patient_id":    a.PatientID,
		"doctor_id":     a.DoctorID,
		"department_id": a.DepartmentID,
		"slot_id":       a.SlotID,
		"reason":        a.Reason,
		"is_emergency":  a.IsEmergency,
	}).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound("doctor_available_slots", err)
		}
		return 0, fmt.Errorf("failed to insert appointment: %w", err)
	}

	return id, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*appointment.PopulatedAppointment, error) {
	query, args, err := populatedAppointments().
		Where(goqu.I("a.id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build appointment query: %w", err)
	}

	return collectOne[appointment.PopulatedAppointment](ctx, r.db, appointmentsTable, query, args...)
}

// Update writes the non-nil fields of changes. With ExpectedStatus set the
// write only happens while the row still has that status, otherwise
// appointment.ErrStatusChanged is returned.
func (r *AppointmentRepository) Update(ctx context.Context, id int64, changes appointment.Changes) error {
	if changes.IsEmpty() {
		return nil
	}

	query, args, err := updateAppointmentQuery(id, changes)
	if err != nil {
		return fmt.Errorf("failed to build appointment update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update appointment %d: %w", id, err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	if changes.ExpectedStatus != nil {
		var exists bool
		err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check appointment %d: %w", id, err)
		}
		if exists {
			return fmt.Errorf("appointment %d is no longer %s: %w", id, *changes.ExpectedStatus, appointment.ErrStatusChanged)
		}
	}

	return notFound(appointmentsTable, pgx.ErrNoRows)
}

// ListPendingByDoctor returns the doctor's confirmation queue, oldest first.
func (r *AppointmentRepository) ListPendingByDoctor(ctx context.Context, doctorID int64) ([]appointment.PopulatedAppointment, error) {
	query, args, err := populatedAppointments().
		Where(
			goqu.I("a.doctor_id").Eq(doctorID),
			goqu.L("a.status::text").Eq(string(appointment.StatusPending)),
		).
		Order(goqu.I("a.created_at").Asc(), goqu.I("a.id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending appointments query: %w", err)
	}

	return collectAll[appointment.PopulatedAppointment](ctx, r.db, appointmentsTable, query, args...)
}

// List returns matching appointments, newest appointment date first.
func (r *AppointmentRepository) List(ctx context.Context, filter appointment.Filter) ([]appointment.PopulatedAppointment, error) {
	query, args, err := listAppointmentsQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build appointments query: %w", err)
	}

	return collectAll[appointment.PopulatedAppointment](ctx, r.db, appointmentsTable, query, args...)
}

// Count ignores Limit and Offset.
func (r *AppointmentRepository) Count(ctx context.Context, filter appointment.Filter) (int, error) {
	query, args, err := countAppointmentsQuery(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to build appointments count: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	return total, nil
}

// ------------------------------------------------------------

func populatedAppointments() *goqu.SelectDataset {
	return dialect.
		From(goqu.T(appointmentsTable).As("a")).
		Join(goqu.T("patients").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("a.patient_id")))).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("a.doctor_id")))).
		Join(goqu.T("departments").As("dept"), goqu.On(goqu.I("dept.id").Eq(goqu.I("a.department_id")))).
		Select(
			goqu.I("a.id"),
			goqu.I("a.patient_id"),
			goqu.I("a.doctor_id"),
			goqu.I("a.department_id"),
			goqu.I("a.slot_id"),
			textColumn("a.appointment_date", "appointment_date"),
			textColumn("a.appointment_time", "appointment_time"),
			goqu.I("a.reason"),
			goqu.I("a.is_emergency"),
			textColumn("a.status", "status"),
			goqu.I("a.confirmed_by"),
			goqu.I("a.confirmed_at"),
			goqu.I("a.rejection_reason"),
			goqu.I("a.rejected_at"),
			goqu.I("a.cancelled_by"),
			goqu.I("a.cancelled_at"),
			goqu.I("a.cancellation_reason"),
			goqu.I("a.created_at"),
			goqu.I("a.updated_at"),
			goqu.I("p.name").As("patient_name"),
			goqu.I("p.phone").As("patient_phone"),
			goqu.I("p.email").As("patient_email"),
			goqu.I("d.name").As("doctor_name"),
			goqu.I("dept.name").As("department_name"),
		)
}

func appointmentFilters(filter appointment.Filter) []goqu.Expression {
	var where []goqu.Expression

	if filter.PatientID > 0 {
		where = append(where, goqu.I("a.patient_id").Eq(filter.PatientID))
	}
	if filter.DoctorID > 0 {
		where = append(where, goqu.I("a.doctor_id").Eq(filter.DoctorID))
	}
	if filter.DepartmentID > 0 {
		where = append(where, goqu.I("a.department_id").Eq(filter.DepartmentID))
	}
	if filter.Status != nil {
		where = append(where, goqu.L("a.status::text").Eq(string(*filter.Status)))
	}
	if filter.IsEmergency != nil {
		where = append(where, goqu.I("a.is_emergency").Eq(*filter.IsEmergency))
	}
	if filter.AppointmentDate != nil {
		where = append(where, goqu.I("a.appointment_date").Eq(*filter.AppointmentDate))
	}
	if filter.FromDate != nil {
		where = append(where, goqu.I("a.appointment_date").Gte(*filter.FromDate))
	}
	if filter.ToDate != nil {
		where = append(where, goqu.I("a.appointment_date").Lte(*filter.ToDate))
	}

	return where
}

func listAppointmentsQuery(filter appointment.Filter) (string, []any, error) {
	ds := populatedAppointments().
		Where(appointmentFilters(filter)...).
		Order(
			goqu.I("a.appointment_date").Desc(),
			goqu.I("a.appointment_time").Desc(),
			goqu.I("a.id").Desc(),
		)

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return ds.Prepared(true).ToSQL()
}

func countAppointmentsQuery(filter appointment.Filter) (string, []any, error) {
	return dialect.
		From(goqu.T(appointmentsTable).As("a")).
		Select(goqu.COUNT(goqu.Star())).
		Where(appointmentFilters(filter)...).
		Prepared(true).
		ToSQL()
}

func updateAppointmentQuery(id int64, c appointment.Changes) (string, []any, error) {
	record := goqu.Record{}

	if c.DoctorID != nil {
		record["doctor_id"] = *c.DoctorID
	}
	if c.DepartmentID != nil {
		record["department_id"] = *c.DepartmentID
	}
	if c.SlotID != nil {
		record["slot_id"] = *c.SlotID
		record["appointment_date"] = slotColumn("available_date", *c.SlotID)
		record["appointment_time"] = slotColumn("start_time", *c.SlotID)
	}
	if c.Reason != nil {
		record["reason"] = *c.Reason
	}
	if c.IsEmergency != nil {
		record["is_emergency"] = *c.IsEmergency
	}
	if c.Status != nil {
		record["status"] = goqu.L("?::text::appointment_status", string(*c.Status))
	}
	if c.ConfirmedBy != nil {
		record["confirmed_by"] = *c.ConfirmedBy
	}
	if c.ConfirmedAt != nil {
		record["confirmed_at"] = *c.ConfirmedAt
	}
	if c.RejectionReason != nil {
		record["rejection_reason"] = *c.RejectionReason
	}
	if c.RejectedAt != nil {
		record["rejected_at"] = *c.RejectedAt
	}
	if c.CancelledBy != nil {
		record["cancelled_by"] = string(*c.CancelledBy)
	}
	if c.CancelledAt != nil {
		record["cancelled_at"] = *c.CancelledAt
	}
	if c.CancellationReason != nil {
		record["cancellation_reason"] = *c.CancellationReason
	}

	where := []exp.Expression{goqu.C("id").Eq(id)}
	if c.ExpectedStatus != nil {
		where = append(where, goqu.L(`"status"::text`).Eq(string(*c.ExpectedStatus)))
	}

	return dialect.
		Update(appointmentsTable).
		Set(record).
		Where(where...).
		Prepared(true).
		ToSQL()
}

func slotColumn(column string, slotID int64) exp.LiteralExpression {
	return goqu.L("(SELECT "+column+" FROM doctor_available_slots WHERE id = ?)", slotID)
}
