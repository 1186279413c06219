package core

import (
	"context"
	"fmt"

	"tailorbook/pkg/domain"
)

// NewOrderTotalsRule returns the rule that blocks orders carrying a NaN or
// infinite price or paid amount, which would make the state unencodable. It
// also blocks a stored total or payment status that disagrees with the items
// and paid amount. The reducer recalculates both on every order action, so
// that second check only fires for views built outside the reducer.
func NewOrderTotalsRule() domain.Rule {
	return orderTotalsRule{}
}

type orderTotalsRule struct{}

func (orderTotalsRule) Name() string { return "order_totals" }

func (r orderTotalsRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityOrder || change.Action == domain.ChangeDelete {
			continue
		}
		order, ok := view.FindOrder(change.ID)
		if !ok {
			continue
		}
		if field, ok := nonFiniteAmount(order); ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("order %s %s must be a finite number", order.OrderNumber, field),
				Entity:   domain.EntityOrder,
				EntityID: order.ID,
			})
			continue
		}
		total := domain.ItemsTotal(order.Items)
		if order.TotalAmount != total {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("order %s total %.2f does not match items %.2f", order.OrderNumber, order.TotalAmount, total),
				Entity:   domain.EntityOrder,
				EntityID: order.ID,
			})
			continue
		}
		if want := domain.DerivePaymentStatus(total, order.PaidAmount); order.PaymentStatus != want {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("order %s payment status %s, expected %s", order.OrderNumber, order.PaymentStatus, want),
				Entity:   domain.EntityOrder,
				EntityID: order.ID,
			})
		}
	}
	return res, nil
}

func nonFiniteAmount(o domain.Order) (string, bool) {
	for i, item := range o.Items {
		if !domain.Finite(item.Price) {
			return fmt.Sprintf("items[%d].price", i), true
		}
	}
	if !domain.Finite(o.PaidAmount) {
		return "paidAmount", true
	}
	return "", false
}
