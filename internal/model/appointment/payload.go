package appointment

import (
	"time"

	"github.com/deppfellow/appointment-service/internal/model"
)

const (
	ActionConfirm = "confirm"
	ActionReject  = "reject"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ------------------------------------------------------------

type CreateAppointmentPayload struct {
	PatientID    int64  `json:"patient_id" validate:"required,gt=0"`
	DoctorID     int64  `json:"doctor_id" validate:"required,gt=0"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	SlotID       int64  `json:"slot_id" validate:"required,gt=0"`
	Reason       string `json:"reason" validate:"required,min=5,max=500"`
	IsEmergency  bool   `json:"is_emergency"`
}

func (p *CreateAppointmentPayload) Validate() error {
	return model.ValidateStruct(p)
}

// ------------------------------------------------------------

// UpdateAppointmentPayload changes doctor, slot, reason or the emergency
// flag. Nil fields are left untouched.
type UpdateAppointmentPayload struct {
	ID          int64   `param:"id" json:"-" validate:"required,gt=0"`
	UpdatedBy   int64   `query:"updated_by" json:"-" validate:"required,gt=0"`
	DoctorID    *int64  `json:"doctor_id" validate:"omitempty,gt=0"`
	SlotID      *int64  `json:"slot_id" validate:"omitempty,gt=0"`
	Reason      *string `json:"reason" validate:"omitempty,min=5,max=500"`
	IsEmergency *bool   `json:"is_emergency"`
}

func (p *UpdateAppointmentPayload) Validate() error {
	return model.ValidateStruct(p)
}

// ------------------------------------------------------------

// ConfirmAppointmentPayload is the doctor's decision on a PENDING
// appointment. Action is checked by the service so that an unknown value
// gets its own error code.
type ConfirmAppointmentPayload struct {
	ID              int64   `param:"id" json:"-" validate:"required,gt=0"`
	ConfirmedBy     int64   `query:"confirmed_by" json:"-" validate:"required,gt=0"`
	Action          string  `json:"action" validate:"required"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=500"`
}

func (p *ConfirmAppointmentPayload) Validate() error {
	return model.ValidateStruct(p)
}

// ------------------------------------------------------------

type CancelAppointmentPayload struct {
	ID                 int64       `param:"id" json:"-" validate:"required,gt=0"`
	CancelledByUser    int64       `query:"cancelled_by_user" json:"-" validate:"required,gt=0"`
	CancelledBy        CancelledBy `json:"cancelled_by" validate:"required,oneof=PATIENT DOCTOR"`
	CancellationReason *string     `json:"cancellation_reason" validate:"omitempty,max=500"`
}

func (p *CancelAppointmentPayload) Validate() error {
	return model.ValidateStruct(p)
}

// ------------------------------------------------------------

type GetAppointmentPayload struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *GetAppointmentPayload) Validate() error {
	return model.ValidateStruct(p)
}

// ------------------------------------------------------------

// ListAppointmentsPayload is the query string of the paginated listing.
// IsEmergency stays a string so that an absent filter is distinguishable
// from false.
type ListAppointmentsPayload struct {
	Page            int    `query:"page" validate:"omitempty,gte=1"`
	PageSize        int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
	PatientID       int64  `query:"patient_id" validate:"omitempty,gt=0"`
	DoctorID        int64  `query:"doctor_id" validate:"omitempty,gt=0"`
	DepartmentID    int64  `query:"department_id" validate:"omitempty,gt=0"`
	Status          string `query:"status" validate:"omitempty,oneof=PENDING CONFIRMED REJECTED CANCELLED"`
	IsEmergency     string `query:"is_emergency" validate:"omitempty,oneof=true false"`
	AppointmentDate string `query:"appointment_date" validate:"omitempty,datetime=2006-01-02"`
	FromDate        string `query:"from_date" validate:"omitempty,datetime=2006-01-02"`
	ToDate          string `query:"to_date" validate:"omitempty,datetime=2006-01-02"`
}

func (p *ListAppointmentsPayload) Validate() error {
	return model.ValidateStruct(p)
}

// Normalize fills in the paging defaults.
func (p *ListAppointmentsPayload) Normalize() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

// ------------------------------------------------------------

type ListPatientAppointmentsPayload struct {
	PatientID int64  `param:"patient_id" json:"-" validate:"required,gt=0"`
	Status    string `query:"status"`
}

func (p *ListPatientAppointmentsPayload) Validate() error {
	return model.ValidateStruct(p)
}

// ------------------------------------------------------------

// Filter is the repository form of the listing filters. Zero ids and nil
// pointers mean "no filter"; Limit 0 means unbounded.
type Filter struct {
	PatientID       int64
	DoctorID        int64
	DepartmentID    int64
	Status          *Status
	IsEmergency     *bool
	AppointmentDate *time.Time
	FromDate        *time.Time
	ToDate          *time.Time
	Limit           int
	Offset          int
}

// NewAppointment holds the columns written on booking. Date and time are
// copied from the slot by the insert itself.
type NewAppointment struct {
	PatientID    int64
	DoctorID     int64
	DepartmentID int64
	SlotID       int64
	Reason       string
	IsEmergency  bool
}

// Changes is a partial update applied by the repository. Only non-nil
// fields are written; a new SlotID also refreshes date and time.
type Changes struct {
	// ExpectedStatus, when set, makes the write conditional on the stored
	// status still being this value.
	ExpectedStatus *Status

	DoctorID           *int64
	DepartmentID       *int64
	SlotID             *int64
	Reason             *string
	IsEmergency        *bool
	Status             *Status
	ConfirmedBy        *int64
	ConfirmedAt        *time.Time
	RejectionReason    *string
	RejectedAt         *time.Time
	CancelledBy        *CancelledBy
	CancelledAt        *time.Time
	CancellationReason *string
}

// IsEmpty reports whether nothing would be written.
func (c *Changes) IsEmpty() bool {
	return c.DoctorID == nil && c.DepartmentID == nil && c.SlotID == nil &&
		c.Reason == nil && c.IsEmergency == nil && c.Status == nil &&
		c.ConfirmedBy == nil && c.ConfirmedAt == nil &&
		c.RejectionReason == nil && c.RejectedAt == nil &&
		c.CancelledBy == nil && c.CancelledAt == nil && c.CancellationReason == nil
}
