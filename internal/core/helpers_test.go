package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"tailorbook/internal/infra/persistence"
	"tailorbook/internal/infra/persistence/memory"
	"tailorbook/pkg/domain"
)

var shopDay = time.Date(2026, 10, 16, 10, 30, 0, 0, time.Local)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// steppingClock returns a clock whose value can be moved during a test.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *memory.Backend) {
	t.Helper()
	backend := memory.New()
	adapter, err := persistence.NewAdapter(backend)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	store, err := NewStore(context.Background(), adapter, opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, backend
}

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Backend) {
	t.Helper()
	store, backend := newTestStore(t)
	opts = append([]Option{WithClock(fixedClock(shopDay))}, opts...)
	return NewService(store, opts...), backend
}

func mustCustomer(t *testing.T, svc *Service, name, mobile string) domain.Customer {
	t.Helper()
	c, err := svc.CreateCustomer(context.Background(), CustomerInput{Name: name, Mobile: mobile})
	if err != nil {
		t.Fatalf("create customer %s: %v", name, err)
	}
	return c
}

func shirt() domain.ShirtMeasurement {
	return domain.ShirtMeasurement{Length: 30, Chest: 40, Waist: 36, Shoulder: 18, SleeveLength: 25, SleeveOpening: 9, Collar: 15.5, ArmHole: 19}
}

func pant() domain.PantMeasurement {
	return domain.PantMeasurement{Length: 40, Waist: 34, Hip: 40, Thigh: 24, Knee: 18, Bottom: 15, Crotch: 11}
}
