package core

import (
	"context"
	"fmt"

	"tailorbook/pkg/domain"
)

// NewOrderNumberUniqueRule returns the rule that blocks a created or updated
// order from taking a number another order already holds. Duplicates that
// were already stored before the transition are left alone.
func NewOrderNumberUniqueRule() domain.Rule {
	return orderNumberUniqueRule{}
}

type orderNumberUniqueRule struct{}

func (orderNumberUniqueRule) Name() string { return "order_number_unique" }

func (r orderNumberUniqueRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityOrder) {
		return res, nil
	}
	counts := numberCounts(view.ListOrders())
	prior, hasPrior := priorView(view)
	var before map[string]int
	if hasPrior {
		before = numberCounts(prior.ListOrders())
	}
	checked := make(map[string]bool)
	for _, change := range changes {
		if change.Entity != domain.EntityOrder || change.Action == domain.ChangeDelete || checked[change.ID] {
			continue
		}
		checked[change.ID] = true
		o, ok := view.FindOrder(change.ID)
		if !ok || o.OrderNumber == "" || counts[o.OrderNumber] < 2 {
			continue
		}
		if hasPrior {
			if po, ok := prior.FindOrder(o.ID); ok && po.OrderNumber == o.OrderNumber && before[o.OrderNumber] >= counts[o.OrderNumber] {
				continue
			}
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("order number %s already used by order %s", o.OrderNumber, holderOf(view.ListOrders(), o)),
			Entity:   domain.EntityOrder,
			EntityID: o.ID,
		})
	}
	return res, nil
}

func numberCounts(orders []domain.Order) map[string]int {
	counts := make(map[string]int)
	for _, o := range orders {
		if o.OrderNumber != "" {
			counts[o.OrderNumber]++
		}
	}
	return counts
}

// holderOf returns the id of the first other order sharing o's number.
func holderOf(orders []domain.Order, o domain.Order) string {
	for _, other := range orders {
		if other.ID != o.ID && other.OrderNumber == o.OrderNumber {
			return other.ID
		}
	}
	return ""
}
