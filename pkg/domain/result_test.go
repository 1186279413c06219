package domain

import (
	"context"
	"fmt"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type emptyView struct{}

func (emptyView) ListCustomers() []Customer                  { return nil }
func (emptyView) ListMeasurements() []Measurement            { return nil }
func (emptyView) ListOrders() []Order                        { return nil }
func (emptyView) FindCustomer(string) (Customer, bool)       { return Customer{}, false }
func (emptyView) FindMeasurement(string) (Measurement, bool) { return Measurement{}, false }
func (emptyView) FindOrder(string) (Order, bool)             { return Order{}, false }

func TestRulesEngineNilAndNames(t *testing.T) {
	var engine *RulesEngine
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil || len(res.Violations) != 0 {
		t.Fatalf("nil engine should evaluate to empty result, got %+v %v", res, err)
	}
	engine = NewRulesEngine()
	engine.Register(staticRule{"a"})
	engine.Register(staticRule{"b"})
	if names := engine.Rules(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected rule names %v", names)
	}
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }

func (failingRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

func TestRulesEngineStopsOnError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(failingRule{})
	engine.Register(staticRule{"never"})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected rule error")
	}
}

func TestRuleViolationErrorNamesBlockingRule(t *testing.T) {
	err := RuleViolationError{Result: Result{Violations: []Violation{
		{Rule: "soft", Severity: SeverityWarn, Message: "ignored"},
		{Rule: "customer_reference", Severity: SeverityBlock, Message: "missing customer"},
	}}}
	want := "transition blocked by rules: customer_reference: missing customer"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestStateViewFinders(t *testing.T) {
	state := NewAppState(true)
	state.Customers = []Customer{{ID: "c1", Name: "Asha"}}
	state.Measurements = []Measurement{{ID: "m1", CustomerID: "c1", Data: PantMeasurement{Waist: 32}}}
	state.Orders = []Order{{ID: "o1", CustomerID: "c1"}}
	view := StateView{State: state}
	if c, ok := view.FindCustomer("c1"); !ok || c.Name != "Asha" {
		t.Fatalf("expected customer c1, got %+v %v", c, ok)
	}
	if _, ok := view.FindCustomer("missing"); ok {
		t.Fatalf("expected missing customer")
	}
	if m, ok := view.FindMeasurement("m1"); !ok || m.Garment() != GarmentPant {
		t.Fatalf("expected pant measurement, got %+v", m)
	}
	if _, ok := view.FindOrder("o1"); !ok {
		t.Fatalf("expected order o1")
	}
	if len(view.ListCustomers()) != 1 || len(view.ListMeasurements()) != 1 || len(view.ListOrders()) != 1 {
		t.Fatalf("unexpected list sizes")
	}
}
