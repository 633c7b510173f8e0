package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/appointment-service/internal/model/slot"
	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"
)

type SlotRepository struct {
	db DBTX
}

func NewSlotRepository(db DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*slot.Slot, error) {
	query := `SELECT id, doctor_id, available_date::text AS available_date,
			start_time::text AS start_time, end_time::text AS end_time,
			is_booked, created_at
		FROM doctor_available_slots
		WHERE id = @id`

	return collectOne[slot.Slot](ctx, r.db, "doctor_available_slots", query, pgx.NamedArgs{"id": id})
}

// ListAvailable returns open slots of active doctors dated today or later.
func (r *SlotRepository) ListAvailable(ctx context.Context, filter slot.Filter, today time.Time) ([]slot.AvailableSlot, error) {
	query, args, err := availableSlotsQuery(filter, today)
	if err != nil {
		return nil, fmt.Errorf("failed to build available slots query: %w", err)
	}

	return collectAll[slot.AvailableSlot](ctx, r.db, "doctor_available_slots", query, args...)
}

func availableSlotsQuery(filter slot.Filter, today time.Time) (string, []any, error) {
	where := []goqu.Expression{
		goqu.I("s.is_booked").IsFalse(),
		goqu.I("d.is_active").IsTrue(),
		goqu.I("s.available_date").Gte(today),
	}

	if filter.DoctorID > 0 {
		where = append(where, goqu.I("s.doctor_id").Eq(filter.DoctorID))
	}
	if filter.DepartmentID > 0 {
		where = append(where, goqu.I("d.department_id").Eq(filter.DepartmentID))
	}
	if filter.AvailableDate != nil {
		where = append(where, goqu.I("s.available_date").Eq(*filter.AvailableDate))
	}
	if filter.FromDate != nil {
		where = append(where, goqu.I("s.available_date").Gte(*filter.FromDate))
	}
	if filter.ToDate != nil {
		where = append(where, goqu.I("s.available_date").Lte(*filter.ToDate))
	}

	return dialect.
		From(goqu.T("doctor_available_slots").As("s")).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("s.doctor_id")))).
		Join(goqu.T("departments").As("dept"), goqu.On(goqu.I("dept.id").Eq(goqu.I("d.department_id")))).
		Select(
			goqu.I("s.id").As("slot_id"),
			goqu.I("s.doctor_id"),
			goqu.I("d.name").As("doctor_name"),
			goqu.I("d.department_id"),
			goqu.I("dept.name").As("department_name"),
			textColumn("s.available_date", "available_date"),
			textColumn("s.start_time", "start_time"),
			textColumn("s.end_time", "end_time"),
		).
		Where(where...).
		Order(goqu.I("s.available_date").Asc(), goqu.I("s.start_time").Asc()).
		Prepared(true).
		ToSQL()
}
