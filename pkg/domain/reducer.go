package domain

import "time"

// ActionType names an action for logs and audit entries.
type ActionType string

// Action type identifiers.
const (
	ActionSetCustomers      ActionType = "setCustomers"
	ActionAddCustomer       ActionType = "addCustomer"
	ActionUpdateCustomer    ActionType = "updateCustomer"
	ActionDeleteCustomer    ActionType = "deleteCustomer"
	ActionSetMeasurements   ActionType = "setMeasurements"
	ActionAddMeasurement    ActionType = "addMeasurement"
	ActionUpdateMeasurement ActionType = "updateMeasurement"
	ActionDeleteMeasurement ActionType = "deleteMeasurement"
	ActionSetOrders         ActionType = "setOrders"
	ActionAddOrder          ActionType = "addOrder"
	ActionUpdateOrder       ActionType = "updateOrder"
	ActionDeleteOrder       ActionType = "deleteOrder"
	ActionSetOnline         ActionType = "setOnline"
	ActionSetSynced         ActionType = "setSynced"
)

// Action is a state transition request. The set of actions is closed; every
// implementation lives in this file.
type Action interface {
	Type() ActionType
	isAction()
}

type (
	// SetCustomers replaces the customer collection.
	SetCustomers struct{ Customers []Customer }
	// AddCustomer appends a customer.
	AddCustomer struct{ Customer Customer }
	// UpdateCustomer replaces the customer with the same id.
	UpdateCustomer struct{ Customer Customer }
	// DeleteCustomer removes a customer with its measurements and orders.
	DeleteCustomer struct{ ID string }
	// SetMeasurements replaces the measurement collection.
	SetMeasurements struct{ Measurements []Measurement }
	// AddMeasurement appends a measurement.
	AddMeasurement struct{ Measurement Measurement }
	// UpdateMeasurement replaces the measurement with the same id.
	UpdateMeasurement struct{ Measurement Measurement }
	// DeleteMeasurement removes one measurement.
	DeleteMeasurement struct{ ID string }
	// SetOrders replaces the order collection.
	SetOrders struct{ Orders []Order }
	// AddOrder appends an order.
	AddOrder struct{ Order Order }
	// UpdateOrder replaces the order with the same id.
	UpdateOrder struct{ Order Order }
	// DeleteOrder removes one order.
	DeleteOrder struct{ ID string }
	// SetOnline records the connectivity flag.
	SetOnline struct{ Online bool }
	// SetSynced records the time of the last successful persistence write.
	SetSynced struct{ At time.Time }
)

func (SetCustomers) Type() ActionType      { return ActionSetCustomers }
func (AddCustomer) Type() ActionType       { return ActionAddCustomer }
func (UpdateCustomer) Type() ActionType    { return ActionUpdateCustomer }
func (DeleteCustomer) Type() ActionType    { return ActionDeleteCustomer }
func (SetMeasurements) Type() ActionType   { return ActionSetMeasurements }
func (AddMeasurement) Type() ActionType    { return ActionAddMeasurement }
func (UpdateMeasurement) Type() ActionType { return ActionUpdateMeasurement }
func (DeleteMeasurement) Type() ActionType { return ActionDeleteMeasurement }
func (SetOrders) Type() ActionType         { return ActionSetOrders }
func (AddOrder) Type() ActionType          { return ActionAddOrder }
func (UpdateOrder) Type() ActionType       { return ActionUpdateOrder }
func (DeleteOrder) Type() ActionType       { return ActionDeleteOrder }
func (SetOnline) Type() ActionType         { return ActionSetOnline }
func (SetSynced) Type() ActionType         { return ActionSetSynced }

func (SetCustomers) isAction()      {}
func (AddCustomer) isAction()       {}
func (UpdateCustomer) isAction()    {}
func (DeleteCustomer) isAction()    {}
func (SetMeasurements) isAction()   {}
func (AddMeasurement) isAction()    {}
func (UpdateMeasurement) isAction() {}
func (DeleteMeasurement) isAction() {}
func (SetOrders) isAction()         {}
func (AddOrder) isAction()          {}
func (UpdateOrder) isAction()       {}
func (DeleteOrder) isAction()       {}
func (SetOnline) isAction()         {}
func (SetSynced) isAction()         {}

// Reduce applies action to state and returns the next state. It never mutates
// its input and never panics; a nil action returns state unchanged.
func Reduce(state AppState, action Action) AppState {
	next, _ := Apply(state, action)
	return next
}

// Apply is Reduce that also reports whether the transition changed anything.
// Updates and deletes of an absent id are silent no-ops.
func Apply(state AppState, action Action) (AppState, bool) {
	switch a := action.(type) {
	case SetCustomers:
		state.Customers = append([]Customer{}, a.Customers...)
		return state, true
	case AddCustomer:
		state.Customers = append(append(make([]Customer, 0, len(state.Customers)+1), state.Customers...), a.Customer)
		return state, true
	case UpdateCustomer:
		out, ok := replaceByID(state.Customers, a.Customer, func(c Customer) string { return c.ID })
		if !ok {
			return state, false
		}
		state.Customers = out
		return state, true
	case DeleteCustomer:
		out, ok := removeWhere(state.Customers, func(c Customer) bool { return c.ID == a.ID })
		if !ok {
			return state, false
		}
		state.Customers = out
		state.Measurements, _ = removeWhere(state.Measurements, func(m Measurement) bool { return m.CustomerID == a.ID })
		state.Orders, _ = removeWhere(state.Orders, func(o Order) bool { return o.CustomerID == a.ID })
		return state, true

	case SetMeasurements:
		out := make([]Measurement, len(a.Measurements))
		for i, m := range a.Measurements {
			out[i] = cloneMeasurement(m)
		}
		state.Measurements = out
		return state, true
	case AddMeasurement:
		state.Measurements = append(append(make([]Measurement, 0, len(state.Measurements)+1), state.Measurements...), cloneMeasurement(a.Measurement))
		return state, true
	case UpdateMeasurement:
		out, ok := replaceByID(state.Measurements, cloneMeasurement(a.Measurement), func(m Measurement) string { return m.ID })
		if !ok {
			return state, false
		}
		state.Measurements = out
		return state, true
	case DeleteMeasurement:
		out, ok := removeWhere(state.Measurements, func(m Measurement) bool { return m.ID == a.ID })
		if !ok {
			return state, false
		}
		state.Measurements = out
		return state, true

	case SetOrders:
		out := make([]Order, len(a.Orders))
		for i, o := range a.Orders {
			out[i] = recalculated(o)
		}
		state.Orders = out
		return state, true
	case AddOrder:
		state.Orders = append(append(make([]Order, 0, len(state.Orders)+1), state.Orders...), recalculated(a.Order))
		return state, true
	case UpdateOrder:
		out, ok := replaceByID(state.Orders, recalculated(a.Order), func(o Order) string { return o.ID })
		if !ok {
			return state, false
		}
		state.Orders = out
		return state, true
	case DeleteOrder:
		out, ok := removeWhere(state.Orders, func(o Order) bool { return o.ID == a.ID })
		if !ok {
			return state, false
		}
		state.Orders = out
		return state, true

	case SetOnline:
		if state.IsOnline == a.Online {
			return state, false
		}
		state.IsOnline = a.Online
		return state, true
	case SetSynced:
		at := a.At
		state.LastSynced = &at
		return state, true
	}
	return state, false
}

// Changes lists the entity changes an action requests against state. Bulk
// replacements report every incoming record as an update.
func Changes(state AppState, action Action) []Change {
	switch a := action.(type) {
	case SetCustomers:
		out := make([]Change, 0, len(a.Customers))
		for _, c := range a.Customers {
			out = append(out, Change{Entity: EntityCustomer, Action: ChangeUpdate, ID: c.ID})
		}
		return out
	case AddCustomer:
		return []Change{{Entity: EntityCustomer, Action: ChangeCreate, ID: a.Customer.ID}}
	case UpdateCustomer:
		return []Change{{Entity: EntityCustomer, Action: ChangeUpdate, ID: a.Customer.ID}}
	case DeleteCustomer:
		out := []Change{{Entity: EntityCustomer, Action: ChangeDelete, ID: a.ID}}
		for _, m := range state.Measurements {
			if m.CustomerID == a.ID {
				out = append(out, Change{Entity: EntityMeasurement, Action: ChangeDelete, ID: m.ID})
			}
		}
		for _, o := range state.Orders {
			if o.CustomerID == a.ID {
				out = append(out, Change{Entity: EntityOrder, Action: ChangeDelete, ID: o.ID})
			}
		}
		return out
	case SetMeasurements:
		out := make([]Change, 0, len(a.Measurements))
		for _, m := range a.Measurements {
			out = append(out, Change{Entity: EntityMeasurement, Action: ChangeUpdate, ID: m.ID})
		}
		return out
	case AddMeasurement:
		return []Change{{Entity: EntityMeasurement, Action: ChangeCreate, ID: a.Measurement.ID}}
	case UpdateMeasurement:
		return []Change{{Entity: EntityMeasurement, Action: ChangeUpdate, ID: a.Measurement.ID}}
	case DeleteMeasurement:
		return []Change{{Entity: EntityMeasurement, Action: ChangeDelete, ID: a.ID}}
	case SetOrders:
		out := make([]Change, 0, len(a.Orders))
		for _, o := range a.Orders {
			out = append(out, Change{Entity: EntityOrder, Action: ChangeUpdate, ID: o.ID})
		}
		return out
	case AddOrder:
		return []Change{{Entity: EntityOrder, Action: ChangeCreate, ID: a.Order.ID}}
	case UpdateOrder:
		return []Change{{Entity: EntityOrder, Action: ChangeUpdate, ID: a.Order.ID}}
	case DeleteOrder:
		return []Change{{Entity: EntityOrder, Action: ChangeDelete, ID: a.ID}}
	}
	return nil
}

func recalculated(o Order) Order {
	cp := cloneOrder(o)
	cp.Recalculate()
	return cp
}

func replaceByID[T any](items []T, item T, id func(T) string) ([]T, bool) {
	want := id(item)
	for i := range items {
		if id(items[i]) == want {
			out := append([]T{}, items...)
			out[i] = item
			return out, true
		}
	}
	return items, false
}

func removeWhere[T any](items []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out, len(out) != len(items)
}
