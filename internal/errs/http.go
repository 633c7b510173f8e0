package errs

import (
	"fmt"
	"net/http"
)

// Domain error codes. They replace the generic status code in HTTPError.Code
// so clients can tell scheduling conflicts apart from malformed input.
const (
	CodeAppointmentNotFound       = "APPOINTMENT_NOT_FOUND"
	CodeDepartmentNotFound        = "DEPARTMENT_NOT_FOUND"
	CodeDoctorNotFound            = "DOCTOR_NOT_FOUND"
	CodePatientNotFound           = "PATIENT_NOT_FOUND"
	CodeSlotNotFound              = "SLOT_NOT_FOUND"
	CodeSlotUnavailable           = "SLOT_UNAVAILABLE"
	CodeSlotAlreadyBooked         = "SLOT_ALREADY_BOOKED"
	CodeSlotDoctorMismatch        = "SLOT_DOCTOR_MISMATCH"
	CodeDoctorDepartmentMismatch  = "DOCTOR_DEPARTMENT_MISMATCH"
	CodeInvalidStatusTransition   = "INVALID_STATUS_TRANSITION"
	CodeCancellationWindowClosed  = "CANCELLATION_WINDOW_CLOSED"
	CodeAppointmentInPast         = "APPOINTMENT_IN_PAST"
	CodeNoAppointmentsFound       = "NO_APPOINTMENTS_FOUND"
	CodePageOutOfRange            = "PAGE_OUT_OF_RANGE"
	CodeInvalidConfirmationAction = "INVALID_CONFIRMATION_ACTION"
	CodeInvalidDateRange          = "INVALID_DATE_RANGE"
	CodeInvalidStatus             = "INVALID_STATUS"
	CodeRejectionReasonRequired   = "REJECTION_REASON_REQUIRED"
)

// NewTooManyRequestsError creates a 429 error.
func NewTooManyRequestsError(message string) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusTooManyRequests)),
		Message:  message,
		Status:   http.StatusTooManyRequests,
		Override: true,
	}
}

// NewForbiddenError creates a 403 error.
func NewForbiddenError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusForbidden)),
		Message:  message,
		Status:   http.StatusForbidden,
		Override: override,
	}
}

// NewBadRequestError creates a 400 error. A nil code defaults to BAD_REQUEST.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))

	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotFoundError creates a 404 error. A nil code defaults to NOT_FOUND.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))

	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewInternalServerError creates a 500 error that never leaks the cause.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// NewServiceUnavailableError creates a 503 error.
func NewServiceUnavailableError(message string) *HTTPError {
	return &HTTPError{
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(http.StatusServiceUnavailable)),
		Message: message,
		Status:  http.StatusServiceUnavailable,
	}
}

// ValidationError wraps a validation failure into a 400.
func ValidationError(err error) *HTTPError {
	return NewBadRequestError("Validation failed: "+err.Error(), false, nil, nil, nil)
}

// BadRequest is a 400 with a domain code and a user facing message.
func BadRequest(code, message string) *HTTPError {
	return NewBadRequestError(message, true, &code, nil, nil)
}

// NotFound builds "<Entity> with id <id> not found" with the given code.
func NotFound(code, entity string, id int64) *HTTPError {
	return NewNotFoundError(fmt.Sprintf("%s with id %d not found", entity, id), true, &code)
}
