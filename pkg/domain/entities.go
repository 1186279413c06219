// Package domain defines the persistent entities, value types, reducer and
// rule evaluation primitives used by tailorbook.
package domain

import (
	"time"
)

// EntityType identifies the type of record stored in the application state.
type EntityType string

// Supported entity type identifiers used in Change records and errors.
const (
	// EntityCustomer identifies a customer record.
	EntityCustomer EntityType = "customer"
	// EntityMeasurement identifies a garment measurement record.
	EntityMeasurement EntityType = "measurement"
	// EntityOrder identifies an order record.
	EntityOrder EntityType = "order"
)

// CustomerTag classifies customers for display and follow-up.
type CustomerTag string

// Customer tags recognised by the shop.
const (
	TagVIP     CustomerTag = "VIP"
	TagRegular CustomerTag = "Regular"
	TagWalkIn  CustomerTag = "Walk-in"
)

// Valid reports whether the tag is one of the known values.
func (t CustomerTag) Valid() bool {
	switch t {
	case TagVIP, TagRegular, TagWalkIn:
		return true
	}
	return false
}

// GarmentType enumerates the garments the shop stitches.
type GarmentType string

// Garment types. The set determines measurement shapes and base prices.
const (
	GarmentShirt     GarmentType = "shirt"
	GarmentPant      GarmentType = "pant"
	GarmentKurta     GarmentType = "kurta"
	GarmentKoti      GarmentType = "koti"
	GarmentWaistcoat GarmentType = "waistcoat"
)

// GarmentTypes lists every garment in display order.
var GarmentTypes = []GarmentType{GarmentShirt, GarmentPant, GarmentKurta, GarmentKoti, GarmentWaistcoat}

// Valid reports whether the garment type is known.
func (g GarmentType) Valid() bool {
	for _, known := range GarmentTypes {
		if g == known {
			return true
		}
	}
	return false
}

// OrderStatus enumerates the stitching workflow.
type OrderStatus string

// Canonical order statuses. The first six form an ordered workflow; cancelled
// is an absorbing side state.
const (
	StatusPending   OrderStatus = "pending"
	StatusCutting   OrderStatus = "cutting"
	StatusStitching OrderStatus = "stitching"
	StatusTrial     OrderStatus = "trial"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Workflow lists the forward stages in order.
var Workflow = []OrderStatus{StatusPending, StatusCutting, StatusStitching, StatusTrial, StatusReady, StatusDelivered}

// PaymentStatus is derived from paid and total amounts; it is never set directly.
type PaymentStatus string

// Payment states.
const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Urgency selects the turnaround and the price multiplier.
type Urgency string

// Urgency levels.
const (
	UrgencyNormal  Urgency = "normal"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyExpress Urgency = "express"
)

// Valid reports whether the urgency is known.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyExpress:
		return true
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks the state transition.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows the transition.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Customer is a shop customer, keyed by an opaque id and identified to staff
// by a 10-digit mobile number.
type Customer struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Mobile    string      `json:"mobile"`
	Email     string      `json:"email,omitempty"`
	Address   string      `json:"address,omitempty"`
	Tag       CustomerTag `json:"tag"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Measurement stores one garment's body dimensions for a customer. The garment
// type is carried by the Data variant.
type Measurement struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customerId"`
	Data           MeasurementData `json:"-"`
	Notes          string          `json:"notes,omitempty"`
	ReferenceImage string          `json:"referenceImage,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Garment returns the garment type of the measurement, or "" when Data is unset.
func (m Measurement) Garment() GarmentType {
	if m.Data == nil {
		return ""
	}
	return m.Data.Garment()
}

// OrderItem is one garment line within an order.
type OrderItem struct {
	ID            string      `json:"id"`
	GarmentType   GarmentType `json:"garmentType"`
	MeasurementID string      `json:"measurementId,omitempty"`
	Quantity      int         `json:"quantity"`
	Price         float64     `json:"price"`
	Notes         string      `json:"notes,omitempty"`
}

// Order is a customer order. TotalAmount and PaymentStatus are derived; call
// Recalculate after touching Items or PaidAmount.
type Order struct {
	ID            string        `json:"id"`
	OrderNumber   string        `json:"orderNumber"`
	CustomerID    string        `json:"customerId"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   float64       `json:"totalAmount"`
	PaidAmount    float64       `json:"paidAmount"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Urgency       Urgency       `json:"urgency"`
	DeliveryDate  string        `json:"deliveryDate"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// AppState is the whole application state. Collections keep insertion order.
type AppState struct {
	Customers    []Customer    `json:"customers"`
	Measurements []Measurement `json:"measurements"`
	Orders       []Order       `json:"orders"`
	LastSynced   *time.Time    `json:"lastSynced"`
	IsOnline     bool          `json:"isOnline"`
}

// NewAppState returns an empty state with non-nil collections.
func NewAppState(online bool) AppState {
	return AppState{
		Customers:    []Customer{},
		Measurements: []Measurement{},
		Orders:       []Order{},
		IsOnline:     online,
	}
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := AppState{
		Customers:    append([]Customer{}, s.Customers...),
		Measurements: make([]Measurement, len(s.Measurements)),
		Orders:       make([]Order, len(s.Orders)),
		IsOnline:     s.IsOnline,
	}
	for i, m := range s.Measurements {
		out.Measurements[i] = cloneMeasurement(m)
	}
	for i, o := range s.Orders {
		out.Orders[i] = cloneOrder(o)
	}
	if s.LastSynced != nil {
		t := *s.LastSynced
		out.LastSynced = &t
	}
	return out
}

func cloneMeasurement(m Measurement) Measurement {
	cp := m
	if m.Data != nil {
		cp.Data = m.Data.clone()
	}
	return cp
}

func cloneOrder(o Order) Order {
	cp := o
	cp.Items = append([]OrderItem{}, o.Items...)
	return cp
}

// Change describes a mutation applied to an entity during a transition.
type Change struct {
	Entity EntityType
	Action ChangeAction
	ID     string
}

// ChangeAction indicates the type of modification performed.
type ChangeAction string

// Change actions enumerate supported CRUD operations.
const (
	ChangeCreate ChangeAction = "create"
	ChangeUpdate ChangeAction = "update"
	ChangeDelete ChangeAction = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transition blocked by rules: " + v.Rule + ": " + v.Message
		}
	}
	return "transition blocked by rules"
}
