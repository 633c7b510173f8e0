package slot

import (
	"time"

	"github.com/deppfellow/appointment-service/internal/model"
)

// Slot is a bookable time window offered by a doctor. Dates and times are
// kept in their column text form (YYYY-MM-DD, HH:MM:SS).
type Slot struct {
	model.Base
	DoctorID      int64  `json:"doctor_id" db:"doctor_id"`
	AvailableDate string `json:"available_date" db:"available_date"`
	StartTime     string `json:"start_time" db:"start_time"`
	EndTime       string `json:"end_time" db:"end_time"`
	IsBooked      bool   `json:"is_booked" db:"is_booked"`
}

// IsAvailable reports whether the slot is free and not dated before today.
func (s *Slot) IsAvailable(today string) bool {
	return !s.IsBooked && s.AvailableDate >= today
}

// AvailableSlot is a row of the open-slot listing.
type AvailableSlot struct {
	SlotID         int64  `json:"slot_id" db:"slot_id"`
	DoctorID       int64  `json:"doctor_id" db:"doctor_id"`
	DoctorName     string `json:"doctor_name" db:"doctor_name"`
	DepartmentID   int64  `json:"department_id" db:"department_id"`
	DepartmentName string `json:"department_name" db:"department_name"`
	AvailableDate  string `json:"available_date" db:"available_date"`
	StartTime      string `json:"start_time" db:"start_time"`
	EndTime        string `json:"end_time" db:"end_time"`
}

// ListAvailablePayload filters the open-slot listing. All filters are
// optional; dates use YYYY-MM-DD.
type ListAvailablePayload struct {
	DoctorID      int64  `query:"doctor_id" validate:"omitempty,gt=0"`
	DepartmentID  int64  `query:"department_id" validate:"omitempty,gt=0"`
	AvailableDate string `query:"available_date" validate:"omitempty,datetime=2006-01-02"`
	FromDate      string `query:"from_date" validate:"omitempty,datetime=2006-01-02"`
	ToDate        string `query:"to_date" validate:"omitempty,datetime=2006-01-02"`
}

func (p *ListAvailablePayload) Validate() error {
	return model.ValidateStruct(p)
}

// Filter is the repository form of ListAvailablePayload, with dates parsed
// and defaults applied.
type Filter struct {
	DoctorID      int64
	DepartmentID  int64
	AvailableDate *time.Time
	FromDate      *time.Time
	ToDate        *time.Time
}
