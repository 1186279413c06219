package core

import (
	"context"
	"fmt"

	"tailorbook/pkg/domain"
)

// NewCustomerReferenceRule returns the rule that blocks measurements and orders
// left pointing at a customer that does not exist. Only dangling references
// the transition introduces are blocked, so records loaded with an orphan
// stay editable.
func NewCustomerReferenceRule() domain.Rule {
	return customerReferenceRule{}
}

type customerReferenceRule struct{}

func (customerReferenceRule) Name() string { return "customer_reference" }

func (r customerReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if len(changes) == 0 {
		return res, nil
	}
	prior, hasPrior := priorView(view)
	customers := customerIDs(view)
	var before map[string]bool
	if hasPrior {
		before = customerIDs(prior)
	}
	namedMeasurements := changedIDs(changes, domain.EntityMeasurement)
	namedOrders := changedIDs(changes, domain.EntityOrder)

	for _, m := range view.ListMeasurements() {
		if customers[m.CustomerID] {
			continue
		}
		if hasPrior {
			if pm, ok := prior.FindMeasurement(m.ID); ok && pm.CustomerID == m.CustomerID && !before[m.CustomerID] {
				continue
			}
		} else if !namedMeasurements[m.ID] {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("measurement %s references unknown customer %q", m.ID, m.CustomerID),
			Entity:   domain.EntityMeasurement,
			EntityID: m.ID,
		})
	}
	for _, o := range view.ListOrders() {
		orphan := !customers[o.CustomerID]
		if orphan && hasPrior {
			if po, ok := prior.FindOrder(o.ID); ok && po.CustomerID == o.CustomerID && !before[o.CustomerID] {
				orphan = false
			}
		} else if orphan && !namedOrders[o.ID] {
			orphan = false
		}
		if orphan {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("order %s references unknown customer %q", o.OrderNumber, o.CustomerID),
				Entity:   domain.EntityOrder,
				EntityID: o.ID,
			})
		}
		if !namedOrders[o.ID] {
			continue
		}
		for _, item := range o.Items {
			if item.MeasurementID == "" {
				continue
			}
			if _, ok := view.FindMeasurement(item.MeasurementID); !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("order %s item %s references missing measurement %q", o.OrderNumber, item.ID, item.MeasurementID),
					Entity:   domain.EntityOrder,
					EntityID: o.ID,
				})
			}
		}
	}
	return res, nil
}

func customerIDs(view domain.RuleView) map[string]bool {
	ids := make(map[string]bool)
	for _, c := range view.ListCustomers() {
		ids[c.ID] = true
	}
	return ids
}

// priorView returns the pre-transition state when the view carries one.
func priorView(view domain.RuleView) (domain.RuleView, bool) {
	pv, ok := view.(domain.PriorView)
	if !ok {
		return nil, false
	}
	return pv.Prior()
}

// changedIDs collects the ids of created or updated records of one entity type.
func changedIDs(changes []domain.Change, entity domain.EntityType) map[string]bool {
	ids := make(map[string]bool)
	for _, c := range changes {
		if c.Entity == entity && c.Action != domain.ChangeDelete {
			ids[c.ID] = true
		}
	}
	return ids
}

// touches reports whether any change concerns one of the entity types.
func touches(changes []domain.Change, entities ...domain.EntityType) bool {
	for _, c := range changes {
		for _, e := range entities {
			if c.Entity == e {
				return true
			}
		}
	}
	return false
}
