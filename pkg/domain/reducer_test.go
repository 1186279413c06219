package domain

import (
	"testing"
	"time"
)

func seededState() AppState {
	state := NewAppState(false)
	state = Reduce(state, AddCustomer{Customer: Customer{ID: "c1", Name: "Ramesh", Mobile: "9876543210", Tag: TagRegular}})
	state = Reduce(state, AddCustomer{Customer: Customer{ID: "c2", Name: "Sita", Mobile: "9123456780", Tag: TagVIP}})
	state = Reduce(state, AddMeasurement{Measurement: Measurement{ID: "m1", CustomerID: "c1", Data: ShirtMeasurement{Chest: 40}}})
	state = Reduce(state, AddMeasurement{Measurement: Measurement{ID: "m2", CustomerID: "c1", Data: PantMeasurement{Waist: 34}}})
	state = Reduce(state, AddMeasurement{Measurement: Measurement{ID: "m3", CustomerID: "c2", Data: KurtaMeasurement{Length: 42}}})
	for _, id := range []string{"o1", "o2", "o3"} {
		state = Reduce(state, AddOrder{Order: Order{ID: id, CustomerID: "c1", Items: []OrderItem{{ID: id + "-i", GarmentType: GarmentShirt, Quantity: 1, Price: 800}}}})
	}
	state = Reduce(state, AddOrder{Order: Order{ID: "o4", CustomerID: "c2", Items: []OrderItem{{ID: "o4-i", GarmentType: GarmentKurta, Quantity: 1, Price: 1200}}}})
	return state
}

func TestReduceDeleteCustomerCascades(t *testing.T) {
	state := seededState()
	next := Reduce(state, DeleteCustomer{ID: "c1"})
	for _, m := range next.Measurements {
		if m.CustomerID == "c1" {
			t.Fatalf("measurement %s survived cascade", m.ID)
		}
	}
	for _, o := range next.Orders {
		if o.CustomerID == "c1" {
			t.Fatalf("order %s survived cascade", o.ID)
		}
	}
	if len(next.Customers) != 1 || len(next.Measurements) != 1 || len(next.Orders) != 1 {
		t.Fatalf("expected c2 records to remain, got %d/%d/%d", len(next.Customers), len(next.Measurements), len(next.Orders))
	}
	if len(state.Customers) != 2 || len(state.Orders) != 4 {
		t.Fatalf("reduce mutated its input")
	}
}

func TestReduceUpdateMissingIsNoop(t *testing.T) {
	state := seededState()
	cases := []Action{
		UpdateCustomer{Customer: Customer{ID: "ghost", Name: "Nobody"}},
		UpdateMeasurement{Measurement: Measurement{ID: "ghost", Data: PantMeasurement{}}},
		UpdateOrder{Order: Order{ID: "ghost"}},
		DeleteOrder{ID: "ghost"},
		DeleteMeasurement{ID: "ghost"},
		DeleteCustomer{ID: "ghost"},
	}
	for _, action := range cases {
		next, changed := Apply(state, action)
		if changed {
			t.Fatalf("%s on missing id reported a change", action.Type())
		}
		if len(next.Customers) != len(state.Customers) || len(next.Orders) != len(state.Orders) {
			t.Fatalf("%s on missing id altered state", action.Type())
		}
	}
}

func TestReduceNilActionUnchanged(t *testing.T) {
	state := seededState()
	next, changed := Apply(state, nil)
	if changed || len(next.Customers) != 2 {
		t.Fatalf("nil action should leave state untouched")
	}
}

func TestReduceOrderActionsRecalculate(t *testing.T) {
	state := NewAppState(true)
	state = Reduce(state, AddOrder{Order: Order{ID: "o1", CustomerID: "c1", TotalAmount: 1, PaymentStatus: PaymentPaid,
		Items: []OrderItem{{GarmentType: GarmentShirt, Quantity: 2, Price: 800}}}})
	if state.Orders[0].TotalAmount != 1600 || state.Orders[0].PaymentStatus != PaymentUnpaid {
		t.Fatalf("add did not recalculate: %+v", state.Orders[0])
	}
	updated := state.Orders[0]
	updated.PaidAmount = 500
	state = Reduce(state, UpdateOrder{Order: updated})
	if state.Orders[0].PaymentStatus != PaymentPartial {
		t.Fatalf("expected partial, got %s", state.Orders[0].PaymentStatus)
	}
	state = Reduce(state, SetOrders{Orders: []Order{{ID: "o2", PaidAmount: 700, Items: []OrderItem{{Quantity: 1, Price: 600}}}}})
	if state.Orders[0].TotalAmount != 600 || state.Orders[0].PaymentStatus != PaymentPaid {
		t.Fatalf("set did not recalculate: %+v", state.Orders[0])
	}
}

func TestReduceDoesNotAliasCallerItems(t *testing.T) {
	items := []OrderItem{{ID: "i1", GarmentType: GarmentPant, Quantity: 1, Price: 600}}
	state := Reduce(NewAppState(true), AddOrder{Order: Order{ID: "o1", Items: items}})
	items[0].Price = 1
	if state.Orders[0].Items[0].Price != 600 {
		t.Fatalf("state shares the caller's item slice")
	}
}

func TestReduceConnectivityAndSync(t *testing.T) {
	state := NewAppState(false)
	if _, changed := Apply(state, SetOnline{Online: false}); changed {
		t.Fatalf("same connectivity value should not change state")
	}
	state = Reduce(state, SetOnline{Online: true})
	if !state.IsOnline {
		t.Fatalf("expected online")
	}
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	state = Reduce(state, SetSynced{At: at})
	if state.LastSynced == nil || !state.LastSynced.Equal(at) {
		t.Fatalf("expected last synced %v, got %v", at, state.LastSynced)
	}
}

func TestReduceUpdateReplacesInPlace(t *testing.T) {
	state := seededState()
	state = Reduce(state, UpdateCustomer{Customer: Customer{ID: "c1", Name: "Ramesh Kumar", Mobile: "9876543210", Tag: TagVIP}})
	if state.Customers[0].Name != "Ramesh Kumar" || state.Customers[1].ID != "c2" {
		t.Fatalf("update should keep insertion order, got %+v", state.Customers)
	}
	state = Reduce(state, UpdateMeasurement{Measurement: Measurement{ID: "m2", CustomerID: "c1", Data: PantMeasurement{Waist: 36}}})
	if pant, ok := state.Measurements[1].Data.(PantMeasurement); !ok || pant.Waist != 36 {
		t.Fatalf("unexpected measurement after update: %+v", state.Measurements[1])
	}
}

func TestChangesDescribeCascade(t *testing.T) {
	state := seededState()
	changes := Changes(state, DeleteCustomer{ID: "c1"})
	counts := map[EntityType]int{}
	for _, ch := range changes {
		if ch.Action != ChangeDelete {
			t.Fatalf("expected delete change, got %+v", ch)
		}
		counts[ch.Entity]++
	}
	if counts[EntityCustomer] != 1 || counts[EntityMeasurement] != 2 || counts[EntityOrder] != 3 {
		t.Fatalf("unexpected change counts %v", counts)
	}
	if got := Changes(state, SetOnline{Online: true}); got != nil {
		t.Fatalf("connectivity actions carry no entity changes, got %v", got)
	}
}

func TestAppStateCloneIsDeep(t *testing.T) {
	cuff := 9.5
	state := NewAppState(true)
	state.Measurements = []Measurement{{ID: "m1", Data: ShirtMeasurement{CuffSize: &cuff}}}
	state.Orders = []Order{{ID: "o1", Items: []OrderItem{{Price: 10}}}}
	now := time.Now()
	state.LastSynced = &now

	cp := state.Clone()
	*cp.Measurements[0].Data.(ShirtMeasurement).CuffSize = 1
	cp.Orders[0].Items[0].Price = 99
	*cp.LastSynced = now.Add(time.Hour)

	if cuff != 9.5 {
		t.Fatalf("clone shares optional dimension pointer")
	}
	if state.Orders[0].Items[0].Price != 10 {
		t.Fatalf("clone shares order items")
	}
	if !state.LastSynced.Equal(now) {
		t.Fatalf("clone shares last synced pointer")
	}
}
