package domain

import (
	"math"
	"regexp"
	"testing"
	"time"
)

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		total, paid float64
		want        PaymentStatus
	}{
		{1600, 0, PaymentUnpaid},
		{1600, 100, PaymentPartial},
		{1600, 1600, PaymentPaid},
		{1600, 2000, PaymentPaid},
		{0, 0, PaymentPaid},
	}
	for _, tc := range cases {
		if got := DerivePaymentStatus(tc.total, tc.paid); got != tc.want {
			t.Fatalf("total=%v paid=%v: expected %s, got %s", tc.total, tc.paid, tc.want, got)
		}
	}
}

func TestRecalculateUsesDecimalSums(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 3, Price: 0.1},
		{Quantity: 1, Price: 0.2},
	}, PaidAmount: 0.5}
	o.Recalculate()
	if o.TotalAmount != 0.5 {
		t.Fatalf("expected exact 0.5, got %v", o.TotalAmount)
	}
	if o.PaymentStatus != PaymentPaid || o.Balance() != 0 {
		t.Fatalf("expected paid with zero balance, got %s %v", o.PaymentStatus, o.Balance())
	}
}

func TestBalanceNegativeWhenOverpaid(t *testing.T) {
	o := Order{TotalAmount: 1000, PaidAmount: 1200}
	if o.Balance() != -200 {
		t.Fatalf("expected -200, got %v", o.Balance())
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusCutting, true},
		{StatusPending, StatusReady, true},
		{StatusStitching, StatusCutting, false},
		{StatusTrial, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusReady, StatusReady, false},
		{StatusPending, OrderStatus("shipped"), false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestQuotePriceAppliesUrgency(t *testing.T) {
	cases := []struct {
		garment GarmentType
		urgency Urgency
		want    float64
	}{
		{GarmentShirt, UrgencyNormal, 800},
		{GarmentPant, UrgencyUrgent, 750},
		{GarmentKurta, UrgencyExpress, 1800},
		{GarmentKoti, UrgencyUrgent, 1875},
		{GarmentWaistcoat, UrgencyNormal, 1800},
	}
	for _, tc := range cases {
		got, err := QuotePrice(tc.garment, tc.urgency)
		if err != nil {
			t.Fatalf("quote %s/%s: %v", tc.garment, tc.urgency, err)
		}
		if got != tc.want {
			t.Fatalf("quote %s/%s: expected %v, got %v", tc.garment, tc.urgency, tc.want, got)
		}
	}
	if _, err := QuotePrice("cape", UrgencyNormal); err == nil {
		t.Fatalf("expected unknown garment error")
	}
	if _, err := QuotePrice(GarmentShirt, "tomorrow"); err == nil {
		t.Fatalf("expected unknown urgency error")
	}
	if base, err := BasePrice(GarmentKoti); err != nil || base != 1500 {
		t.Fatalf("expected koti base 1500, got %v %v", base, err)
	}
}

func TestDefaultDeliveryDate(t *testing.T) {
	now := time.Date(2024, 12, 30, 18, 0, 0, 0, time.UTC)
	cases := map[Urgency]string{
		UrgencyNormal:  "2025-01-06",
		UrgencyUrgent:  "2025-01-02",
		UrgencyExpress: "2024-12-31",
	}
	for urgency, want := range cases {
		got, err := DefaultDeliveryDate(now, urgency)
		if err != nil || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", urgency, want, got, err)
		}
	}
}

func TestOrderNumberFormatAndParse(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{8}-\d{3}$`)
	prefix := OrderNumberPrefix(time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local))
	if prefix != "20240309" {
		t.Fatalf("unexpected prefix %s", prefix)
	}
	number := FormatOrderNumber(prefix, 7)
	if !pattern.MatchString(number) || number != "20240309-007" {
		t.Fatalf("unexpected order number %s", number)
	}
	gotPrefix, seq, ok := ParseOrderNumber(number)
	if !ok || gotPrefix != prefix || seq != 7 {
		t.Fatalf("parse %s: %s %d %v", number, gotPrefix, seq, ok)
	}
	for _, bad := range []string{"", "20240309", "2024039-001", "20240309-01", "20240309-+01", "2024O309-001"} {
		if _, _, ok := ParseOrderNumber(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
	if got := FormatOrderNumber(prefix, 1000); got != "20240309-1000" {
		t.Fatalf("expected widened sequence, got %s", got)
	}
}

func TestValidateOrder(t *testing.T) {
	valid := Order{CustomerID: "c1", Status: StatusPending, Urgency: UrgencyNormal, DeliveryDate: "2024-03-16",
		Items: []OrderItem{{GarmentType: GarmentShirt, Quantity: 1, Price: 800}}}
	if err := ValidateOrder(valid); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}
	bad := Order{Status: "lost", Urgency: "whenever", DeliveryDate: "16/03/2024", PaidAmount: -1,
		Items: []OrderItem{{GarmentType: "cape", Quantity: 0, Price: -5}}}
	err := ValidateOrder(bad)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, field := range []string{"customerId", "status", "urgency", "deliveryDate", "paidAmount",
		"items[0].garmentType", "items[0].quantity", "items[0].price"} {
		if !verr.Has(field) {
			t.Fatalf("expected problem for %s, got %v", field, verr.Problems)
		}
	}
	if err := ValidateOrder(Order{CustomerID: "c1", Status: StatusPending, Urgency: UrgencyNormal}); err == nil {
		t.Fatalf("expected empty items to be rejected")
	}
}

func TestValidateOrderRejectsNonFiniteAmounts(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		o := Order{CustomerID: "c1", Status: StatusPending, Urgency: UrgencyNormal, PaidAmount: v,
			Items: []OrderItem{{GarmentType: GarmentShirt, Quantity: 1, Price: v}}}
		verr, ok := ValidateOrder(o).(*ValidationError)
		if !ok {
			t.Fatalf("%v: expected *ValidationError", v)
		}
		if !verr.Has("items[0].price") || !verr.Has("paidAmount") {
			t.Fatalf("%v: expected price and paid amount problems, got %v", v, verr.Problems)
		}
	}
}

func TestNonFiniteAmountsDoNotPanic(t *testing.T) {
	o := Order{PaidAmount: math.NaN(), Items: []OrderItem{
		{Quantity: 2, Price: math.Inf(1)},
		{Quantity: 1, Price: 300},
	}}
	o.Recalculate()
	if o.TotalAmount != 300 {
		t.Fatalf("expected non-finite price to count as zero, got %v", o.TotalAmount)
	}
	if got := o.Balance(); got != 300 {
		t.Fatalf("expected balance 300, got %v", got)
	}
	if got := (Order{TotalAmount: math.Inf(-1), PaidAmount: 50}).Balance(); got != -50 {
		t.Fatalf("expected balance -50, got %v", got)
	}

	state := Reduce(NewAppState(true), AddOrder{Order: Order{ID: "o1", PaidAmount: math.Inf(1),
		Items: []OrderItem{{ID: "i1", GarmentType: GarmentShirt, Quantity: 1, Price: math.NaN()}}}})
	if len(state.Orders) != 1 || state.Orders[0].TotalAmount != 0 {
		t.Fatalf("expected order added with zero total, got %+v", state.Orders)
	}
}
