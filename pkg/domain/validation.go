package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// ErrDuplicateMobile is returned when a customer mobile number is already in use.
var ErrDuplicateMobile = errors.New("mobile number already registered")

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ErrNotFound indicates that a referenced entity does not exist in state.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// FieldProblem describes one invalid input field.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError collects every field problem found in one input.
type ValidationError struct {
	Problems []FieldProblem
}

// Add records a problem for field.
func (e *ValidationError) Add(field, message string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: message})
}

// OrNil returns e when it carries problems and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether a problem was recorded for field.
func (e *ValidationError) Has(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

// ValidMobile reports whether mobile is exactly ten ASCII digits.
func ValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}

// ValidateCustomer checks the caller-facing customer invariants. Mobile
// uniqueness needs the current state and is checked by the service.
func ValidateCustomer(c Customer) error {
	verr := &ValidationError{}
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("name", "is required")
	}
	if !ValidMobile(c.Mobile) {
		verr.Add("mobile", "must be exactly 10 digits")
	}
	if c.Email != "" {
		if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
			verr.Add("email", "is not a valid address")
		}
	}
	if !c.Tag.Valid() {
		verr.Add("tag", fmt.Sprintf("unknown tag %q", c.Tag))
	}
	return verr.OrNil()
}

// ValidateMeasurement checks ownership and dimension shape.
func ValidateMeasurement(m Measurement) error {
	verr := &ValidationError{}
	if m.CustomerID == "" {
		verr.Add("customerId", "is required")
	}
	if m.Data == nil {
		verr.Add("data", "is required")
		return verr
	}
	var shape *ValidationError
	if err := m.Data.Validate(); errors.As(err, &shape) {
		verr.Problems = append(verr.Problems, shape.Problems...)
	}
	return verr.OrNil()
}

// ValidateOrder checks item shape, amounts and enumerations. Totals are not
// checked here because Recalculate derives them.
func ValidateOrder(o Order) error {
	verr := &ValidationError{}
	if o.CustomerID == "" {
		verr.Add("customerId", "is required")
	}
	if len(o.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}
	for i, item := range o.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if !item.GarmentType.Valid() {
			verr.Add(prefix+".garmentType", fmt.Sprintf("unknown garment %q", item.GarmentType))
		}
		if item.Quantity < 1 {
			verr.Add(prefix+".quantity", "must be at least 1")
		}
		switch {
		case !Finite(item.Price):
			verr.Add(prefix+".price", "must be a finite number")
		case item.Price < 0:
			verr.Add(prefix+".price", "must not be negative")
		}
	}
	switch {
	case !Finite(o.PaidAmount):
		verr.Add("paidAmount", "must be a finite number")
	case o.PaidAmount < 0:
		verr.Add("paidAmount", "must not be negative")
	}
	if !o.Urgency.Valid() {
		verr.Add("urgency", fmt.Sprintf("unknown urgency %q", o.Urgency))
	}
	if !o.Status.Valid() {
		verr.Add("status", fmt.Sprintf("unknown status %q", o.Status))
	}
	if o.DeliveryDate != "" {
		if _, err := ParseDeliveryDate(o.DeliveryDate); err != nil {
			verr.Add("deliveryDate", "must be YYYY-MM-DD")
		}
	}
	return verr.OrNil()
}
