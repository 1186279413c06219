package core

import "tailorbook/pkg/domain"

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewCustomerReferenceRule())
	engine.Register(NewOrderTotalsRule())
	engine.Register(NewOrderNumberUniqueRule())
	engine.Register(NewMeasurementShapeRule())
	return engine
}
