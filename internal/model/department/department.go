package department

import "github.com/deppfellow/appointment-service/internal/model"

// Department is a hospital department doctors belong to.
type Department struct {
	model.Base
	Name     string `json:"name" db:"name"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

// ListDepartmentsPayload has no inputs; active departments are always listed.
type ListDepartmentsPayload struct{}

func (p *ListDepartmentsPayload) Validate() error {
	return nil
}

type ListDoctorsPayload struct {
	DepartmentID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *ListDoctorsPayload) Validate() error {
	return model.ValidateStruct(p)
}
