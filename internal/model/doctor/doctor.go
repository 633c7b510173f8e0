package doctor

import "github.com/deppfellow/appointment-service/internal/model"

// Doctor belongs to exactly one department. Inactive doctors keep their
// history but cannot receive new appointments.
type Doctor struct {
	model.Base
	Name           string `json:"name" db:"name"`
	DepartmentID   int64  `json:"department_id" db:"department_id"`
	DepartmentName string `json:"department_name" db:"department_name"`
	IsActive       bool   `json:"is_active" db:"is_active"`
}

// CanAccept reports whether the doctor may be booked into departmentID.
func (d *Doctor) CanAccept(departmentID int64) bool {
	return d.IsActive && d.DepartmentID == departmentID
}

type ListPendingPayload struct {
	DoctorID int64 `param:"doctor_id" json:"-" validate:"required,gt=0"`
}

func (p *ListPendingPayload) Validate() error {
	return model.ValidateStruct(p)
}
