package repository

import (
	"context"

	"github.com/deppfellow/appointment-service/internal/model/department"
	"github.com/jackc/pgx/v5"
)

type DepartmentRepository struct {
	db DBTX
}

func NewDepartmentRepository(db DBTX) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

const departmentColumns = `id, name, is_active, created_at`

func (r *DepartmentRepository) ListActive(ctx context.Context) ([]department.Department, error) {
	query := `SELECT ` + departmentColumns + `
		FROM departments
		WHERE is_active = TRUE
		ORDER BY name`

	return collectAll[department.Department](ctx, r.db, "departments", query)
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*department.Department, error) {
	query := `SELECT ` + departmentColumns + `
		FROM departments
		WHERE id = @id`

	return collectOne[department.Department](ctx, r.db, "departments", query, pgx.NamedArgs{"id": id})
}
