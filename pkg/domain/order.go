package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryDateLayout is the calendar-date format used for delivery dates.
const DeliveryDateLayout = "2006-01-02"

// Valid reports whether the status is a known workflow or side state.
func (s OrderStatus) Valid() bool {
	return s == StatusCancelled || s.stage() >= 0
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) stage() int {
	for i, st := range Workflow {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether an order in status s may move to next.
// Forward moves may skip stages; backward moves are rejected. Cancellation is
// allowed from any non-terminal status. Sending an order back a stage for
// rework is not a status move; it stays at its stage and the rework goes in
// Notes.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() || s == next {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	from := s.stage()
	return from >= 0 && next.stage() > from
}

// DerivePaymentStatus maps paid and total amounts onto the payment tri-state.
// A fully covered order is paid even when the total is zero.
func DerivePaymentStatus(total, paid float64) PaymentStatus {
	switch {
	case paid >= total:
		return PaymentPaid
	case paid > 0:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// Finite reports whether v is a usable money amount, neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// money converts v to a decimal, reading non-finite input as zero.
func money(v float64) decimal.Decimal {
	if !Finite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// ItemsTotal sums price times quantity over items in decimal arithmetic.
// Items with a non-finite price contribute nothing; ValidateOrder rejects them.
func ItemsTotal(items []OrderItem) float64 {
	sum := decimal.Zero
	for _, item := range items {
		line := money(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2).InexactFloat64()
}

// Recalculate derives TotalAmount and PaymentStatus from Items and PaidAmount.
func (o *Order) Recalculate() {
	o.TotalAmount = ItemsTotal(o.Items)
	o.PaymentStatus = DerivePaymentStatus(o.TotalAmount, o.PaidAmount)
}

// Balance returns the amount still owed. It is negative when overpaid. A
// non-finite amount counts as zero.
func (o Order) Balance() float64 {
	return money(o.TotalAmount).Sub(money(o.PaidAmount)).Round(2).InexactFloat64()
}

// Active reports whether the order still needs work.
func (o Order) Active() bool {
	return !o.Status.Terminal()
}

// ParseDeliveryDate parses a YYYY-MM-DD delivery date in the local zone.
func ParseDeliveryDate(value string) (time.Time, error) {
	return time.ParseInLocation(DeliveryDateLayout, value, time.Local)
}
