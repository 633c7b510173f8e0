package repository

import (
	"context"

	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/jackc/pgx/v5"
)

type DoctorRepository struct {
	db DBTX
}

func NewDoctorRepository(db DBTX) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const doctorSelect = `SELECT d.id, d.name, d.department_id, dept.name AS department_name, d.is_active, d.created_at
	FROM doctors d
	JOIN departments dept ON dept.id = d.department_id`

// GetByID returns the doctor whether active or not.
func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*doctor.Doctor, error) {
	query := doctorSelect + ` WHERE d.id = @id`

	return collectOne[doctor.Doctor](ctx, r.db, "doctors", query, pgx.NamedArgs{"id": id})
}

func (r *DoctorRepository) ListActiveByDepartment(ctx context.Context, departmentID int64) ([]doctor.Doctor, error) {
	query := doctorSelect + `
		WHERE d.department_id = @department_id AND d.is_active = TRUE
		ORDER BY d.name`

	return collectAll[doctor.Doctor](ctx, r.db, "doctors", query, pgx.NamedArgs{"department_id": departmentID})
}
