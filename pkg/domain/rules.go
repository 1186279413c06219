package domain

import "context"

// RuleView provides read-only access to a candidate state for rule evaluation.
type RuleView interface {
	ListCustomers() []Customer
	ListMeasurements() []Measurement
	ListOrders() []Order
	FindCustomer(id string) (Customer, bool)
	FindMeasurement(id string) (Measurement, bool)
	FindOrder(id string) (Order, bool)
}

// Rule defines an evaluation executed before a transition commits.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rule names in evaluation order.
func (e *RulesEngine) Rules() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name())
	}
	return names
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	if e == nil {
		return combined, nil
	}
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// PriorView is implemented by views that also expose the state a transition
// started from, so rules can tell problems it introduces from ones it inherits.
type PriorView interface {
	Prior() (RuleView, bool)
}

// StateView adapts an AppState to RuleView. Lists are returned as-is; rules
// must treat them as read-only. Before, when set, is the pre-transition state.
type StateView struct {
	State  AppState
	Before *AppState
}

// Prior returns the pre-transition state, if one was recorded.
func (v StateView) Prior() (RuleView, bool) {
	if v.Before == nil {
		return nil, false
	}
	return StateView{State: *v.Before}, true
}

func (v StateView) ListCustomers() []Customer       { return v.State.Customers }
func (v StateView) ListMeasurements() []Measurement { return v.State.Measurements }
func (v StateView) ListOrders() []Order             { return v.State.Orders }

func (v StateView) FindCustomer(id string) (Customer, bool) {
	for _, c := range v.State.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

func (v StateView) FindMeasurement(id string) (Measurement, bool) {
	for _, m := range v.State.Measurements {
		if m.ID == id {
			return m, true
		}
	}
	return Measurement{}, false
}

func (v StateView) FindOrder(id string) (Order, bool) {
	for _, o := range v.State.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}
