package core

import (
	"context"

	"tailorbook/pkg/domain"
)

// Accessors offers record-level save, delete and lookup helpers. Writes go
// through Store.Update, so they share the store's lock, rules and persistence
// with every other mutation. They do not validate input; use Service for
// that.
type Accessors struct {
	store *Store
	clock Clock
}

// NewAccessors binds accessors to store. A nil clock uses local time.
func NewAccessors(store *Store, clock Clock) *Accessors {
	if clock == nil {
		clock = defaultServiceOptions().clock
	}
	return &Accessors{store: store, clock: clock}
}

// SaveCustomer replaces the customer with the same id or appends it.
func (a *Accessors) SaveCustomer(ctx context.Context, c domain.Customer) error {
	_, err := a.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
		if _, ok := CustomerByID(state, c.ID); ok {
			return []domain.Action{domain.UpdateCustomer{Customer: c}}, nil
		}
		return []domain.Action{domain.AddCustomer{Customer: c}}, nil
	})
	return err
}

// DeleteCustomer removes a customer and everything that belongs to it.
func (a *Accessors) DeleteCustomer(ctx context.Context, id string) error {
	return a.store.Dispatch(ctx, domain.DeleteCustomer{ID: id})
}

// SaveMeasurement replaces the measurement with the same id or appends it.
func (a *Accessors) SaveMeasurement(ctx context.Context, m domain.Measurement) error {
	_, err := a.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
		if _, ok := MeasurementByID(state, m.ID); ok {
			return []domain.Action{domain.UpdateMeasurement{Measurement: m}}, nil
		}
		return []domain.Action{domain.AddMeasurement{Measurement: m}}, nil
	})
	return err
}

// DeleteMeasurement removes one measurement.
func (a *Accessors) DeleteMeasurement(ctx context.Context, id string) error {
	return a.store.Dispatch(ctx, domain.DeleteMeasurement{ID: id})
}

// SaveOrder replaces the order with the same id or appends it.
func (a *Accessors) SaveOrder(ctx context.Context, o domain.Order) error {
	_, err := a.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
		if _, ok := OrderByID(state, o.ID); ok {
			return []domain.Action{domain.UpdateOrder{Order: o}}, nil
		}
		return []domain.Action{domain.AddOrder{Order: o}}, nil
	})
	return err
}

// DeleteOrder removes one order.
func (a *Accessors) DeleteOrder(ctx context.Context, id string) error {
	return a.store.Dispatch(ctx, domain.DeleteOrder{ID: id})
}

// FindCustomerByMobile looks a customer up by mobile number.
func (a *Accessors) FindCustomerByMobile(mobile string) (domain.Customer, bool) {
	return CustomerByMobile(a.store.State(), mobile)
}

// SearchCustomers matches name or mobile against query.
func (a *Accessors) SearchCustomers(query string) []domain.Customer {
	return SearchCustomers(a.store.State(), query)
}

// CustomerMeasurements lists a customer's measurements.
func (a *Accessors) CustomerMeasurements(customerID string) []domain.Measurement {
	return CustomerMeasurements(a.store.State(), customerID)
}

// CustomerOrders lists a customer's orders.
func (a *Accessors) CustomerOrders(customerID string) []domain.Order {
	return CustomerOrders(a.store.State(), customerID)
}

// GenerateOrderNumber previews today's next order number without reserving it.
func (a *Accessors) GenerateOrderNumber() string {
	return GenerateOrderNumber(a.store.State(), a.clock.Now())
}
