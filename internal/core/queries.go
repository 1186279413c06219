package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tailorbook/pkg/domain"
)

// SearchCustomers returns customers whose name contains query ignoring case or
// whose mobile contains it verbatim. An empty query matches everyone.
func SearchCustomers(state domain.AppState, query string) []domain.Customer {
	q := strings.ToLower(query)
	out := make([]domain.Customer, 0)
	for _, c := range state.Customers {
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Mobile, query) {
			out = append(out, c)
		}
	}
	return out
}

// CustomerByID finds a customer.
func CustomerByID(state domain.AppState, id string) (domain.Customer, bool) {
	return domain.StateView{State: state}.FindCustomer(id)
}

// CustomerByMobile finds the first customer registered with mobile.
func CustomerByMobile(state domain.AppState, mobile string) (domain.Customer, bool) {
	for _, c := range state.Customers {
		if c.Mobile == mobile {
			return c, true
		}
	}
	return domain.Customer{}, false
}

// MeasurementByID finds a measurement.
func MeasurementByID(state domain.AppState, id string) (domain.Measurement, bool) {
	return domain.StateView{State: state}.FindMeasurement(id)
}

// OrderByID finds an order.
func OrderByID(state domain.AppState, id string) (domain.Order, bool) {
	return domain.StateView{State: state}.FindOrder(id)
}

// OrderByNumber finds an order by its YYYYMMDD-NNN number.
func OrderByNumber(state domain.AppState, number string) (domain.Order, bool) {
	for _, o := range state.Orders {
		if o.OrderNumber == number {
			return o, true
		}
	}
	return domain.Order{}, false
}

// CustomerMeasurements lists a customer's measurements in insertion order.
func CustomerMeasurements(state domain.AppState, customerID string) []domain.Measurement {
	out := make([]domain.Measurement, 0)
	for _, m := range state.Measurements {
		if m.CustomerID == customerID {
			out = append(out, m)
		}
	}
	return out
}

// CustomerOrders lists a customer's orders in insertion order.
func CustomerOrders(state domain.AppState, customerID string) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range state.Orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out
}

// GenerateOrderNumber previews the next number for the day of now: the count
// of orders already carrying today's prefix, plus one. It reserves nothing,
// so two calls without an insert in between return the same value; use
// NextOrderNumber inside Store.Update to allocate.
func GenerateOrderNumber(state domain.AppState, now time.Time) string {
	prefix := domain.OrderNumberPrefix(now)
	count := 0
	for _, o := range state.Orders {
		if strings.HasPrefix(o.OrderNumber, prefix) {
			count++
		}
	}
	return domain.FormatOrderNumber(prefix, count+1)
}

// NextOrderNumber returns one more than the highest sequence used today, so a
// deleted order never frees a number below a surviving one.
func NextOrderNumber(state domain.AppState, now time.Time) string {
	prefix := domain.OrderNumberPrefix(now)
	highest := 0
	for _, o := range state.Orders {
		p, seq, ok := domain.ParseOrderNumber(o.OrderNumber)
		if ok && p == prefix && seq > highest {
			highest = seq
		}
	}
	return domain.FormatOrderNumber(prefix, highest+1)
}

// DashboardStats summarises the shop for the landing screen.
type DashboardStats struct {
	Customers          int
	Measurements       int
	Orders             int
	ActiveOrders       int
	DueToday           int
	Overdue            int
	OutstandingBalance float64
}

// Stats computes dashboard figures. Due and overdue counts only consider
// active orders and compare delivery dates against the calendar day of now.
func Stats(state domain.AppState, now time.Time) DashboardStats {
	stats := DashboardStats{
		Customers:    len(state.Customers),
		Measurements: len(state.Measurements),
		Orders:       len(state.Orders),
	}
	today := now.Format(domain.DeliveryDateLayout)
	outstanding := decimal.Zero
	for _, o := range state.Orders {
		if !o.Active() {
			continue
		}
		stats.ActiveOrders++
		switch {
		case o.DeliveryDate == today:
			stats.DueToday++
		case o.DeliveryDate != "" && o.DeliveryDate < today:
			stats.Overdue++
		}
		if balance := o.Balance(); balance > 0 {
			outstanding = outstanding.Add(decimal.NewFromFloat(balance))
		}
	}
	stats.OutstandingBalance = outstanding.Round(2).InexactFloat64()
	return stats
}
