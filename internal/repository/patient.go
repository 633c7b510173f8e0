package repository

import (
	"context"

	"github.com/deppfellow/appointment-service/internal/model/patient"
	"github.com/jackc/pgx/v5"
)

// PatientRepository reads the local patient replica; it never writes.
type PatientRepository struct {
	db DBTX
}

func NewPatientRepository(db DBTX) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*patient.Patient, error) {
	query := `SELECT id, name, phone, email, created_at
		FROM patients
		WHERE id = @id`

	return collectOne[patient.Patient](ctx, r.db, "patients", query, pgx.NamedArgs{"id": id})
}
