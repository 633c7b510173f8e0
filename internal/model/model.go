// Package model holds the entities and request payloads shared by the
// repository, service and handler layers.
package model

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DateLayout is the wire and column text format of calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the text format of TIME columns.
	ClockLayout = "15:04:05"
)

// Base carries the columns every table has.
type Base struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MessageResponse acknowledges a state change.
type MessageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewMessageResponse returns a successful acknowledgement.
func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Message: message, Status: "success"}
}

// PaginationMeta describes one page of a listing.
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// PaginatedResponse wraps a page of items with its metadata.
type PaginatedResponse[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// NewPaginatedResponse builds the response for page (1-based).
func NewPaginatedResponse[T any](data []T, page, pageSize, total int) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}

	totalPages := TotalPages(total, pageSize)

	return PaginatedResponse[T]{
		Data: data,
		Meta: PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}

// ParseDate parses a YYYY-MM-DD string in loc. Empty input yields nil.
func ParseDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CombineDateTime joins a DATE and a TIME column value into an instant in loc.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
}

var validate = newValidator()

// newValidator reports fields by their wire name (json, query or param tag)
// so field errors match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// ValidateStruct runs the `validate` struct tags of a payload.
func ValidateStruct(payload any) error {
	return validate.Struct(payload)
}
