package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/appointment-service/internal/errs"
	"github.com/deppfellow/appointment-service/internal/model"
	"github.com/deppfellow/appointment-service/internal/model/department"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/model/slot"
)

// CatalogService serves the lookups used while booking: departments,
// their doctors and open slots.
type CatalogService struct {
	departments DepartmentRepository
	doctors     DoctorRepository
	slots       SlotRepository
	clock       Clock
}

func NewCatalogService(departments DepartmentRepository, doctors DoctorRepository, slots SlotRepository, clock Clock) *CatalogService {
	return &CatalogService{
		departments: departments,
		doctors:     doctors,
		slots:       slots,
		clock:       clock,
	}
}

func (s *CatalogService) ListDepartments(ctx context.Context) ([]department.Department, error) {
	return s.departments.ListActive(ctx)
}

func (s *CatalogService) ListDoctorsByDepartment(ctx context.Context, departmentID int64) ([]doctor.Doctor, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound(errs.CodeDepartmentNotFound, "Department", departmentID)
		}
		return nil, err
	}

	return s.doctors.ListActiveByDepartment(ctx, departmentID)
}

// ListAvailableSlots lists open slots from from_date (today by default).
func (s *CatalogService) ListAvailableSlots(ctx context.Context, payload *slot.ListAvailablePayload) ([]slot.AvailableSlot, error) {
	loc := s.clock.Location

	filter := slot.Filter{
		DoctorID:     payload.DoctorID,
		DepartmentID: payload.DepartmentID,
	}

	var err error
	if filter.AvailableDate, err = model.ParseDate(payload.AvailableDate, loc); err != nil {
		return nil, errs.ValidationError(err)
	}
	if filter.FromDate, err = model.ParseDate(payload.FromDate, loc); err != nil {
		return nil, errs.ValidationError(err)
	}
	if filter.ToDate, err = model.ParseDate(payload.ToDate, loc); err != nil {
		return nil, errs.ValidationError(err)
	}

	today := s.clock.today()
	if filter.FromDate == nil {
		filter.FromDate = &today
	}

	if filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, errs.BadRequest(errs.CodeInvalidDateRange,
			fmt.Sprintf("from_date %s is after to_date %s", filter.FromDate.Format(model.DateLayout), payload.ToDate))
	}

	return s.slots.ListAvailable(ctx, filter, today)
}
