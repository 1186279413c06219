package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tailorbook/pkg/domain"
)

// Service is the validated path into the store. Each operation validates its
// input, reads and writes the state inside one Store.Update, and reports
// through the configured logger, metrics, tracer and audit recorder.
type Service struct {
	store   *Store
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	newID   func() string
}

// NewService constructs a service backed by the supplied store.
func NewService(store *Store, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:   store,
		clock:   o.clock,
		logger:  o.logger,
		audit:   o.audit,
		metrics: o.metrics,
		tracer:  o.tracer,
		newID:   uuid.NewString,
	}
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// State returns a copy of the current state.
func (s *Service) State() domain.AppState {
	return s.store.State()
}

// CustomerInput carries the caller-editable customer fields.
type CustomerInput struct {
	Name    string
	Mobile  string
	Email   string
	Address string
	Notes   string
	Tag     domain.CustomerTag
}

// OrderInput carries a new order. Items without an id get one. With AutoPrice
// set, items priced at zero take the quoted price for the urgency.
type OrderInput struct {
	CustomerID   string
	Items        []domain.OrderItem
	PaidAmount   float64
	Urgency      domain.Urgency
	DeliveryDate string
	Notes        string
	AutoPrice    bool
}

var operationMetadata = map[string]struct {
	entity domain.EntityType
	action domain.ChangeAction
}{
	"create_customer":      {domain.EntityCustomer, domain.ChangeCreate},
	"update_customer":      {domain.EntityCustomer, domain.ChangeUpdate},
	"delete_customer":      {domain.EntityCustomer, domain.ChangeDelete},
	"record_measurement":   {domain.EntityMeasurement, domain.ChangeCreate},
	"update_measurement":   {domain.EntityMeasurement, domain.ChangeUpdate},
	"delete_measurement":   {domain.EntityMeasurement, domain.ChangeDelete},
	"place_order":          {domain.EntityOrder, domain.ChangeCreate},
	"update_order":         {domain.EntityOrder, domain.ChangeUpdate},
	"advance_order_status": {domain.EntityOrder, domain.ChangeUpdate},
	"record_payment":       {domain.EntityOrder, domain.ChangeUpdate},
	"delete_order":         {domain.EntityOrder, domain.ChangeDelete},
}

// run wraps one operation with tracing, metrics, audit and logging. fn returns
// the id of the entity it touched.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	entityID, err := fn(ctx)
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Error("core operation failed", "operation", op, "entity_id", entityID, "error", err)
		s.recordAudit(ctx, op, entityID, duration, err)
		return err
	}
	s.logger.Debug("core operation succeeded", "operation", op, "entity_id", entityID, "duration", duration)
	s.recordAuditSuccess(ctx, op, entityID, duration)
	return nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, duration, nil)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	meta, ok := operationMetadata[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

func (s *Service) now() time.Time {
	return s.clock.Now()
}

func normalizeCustomer(in CustomerInput) domain.Customer {
	c := domain.Customer{
		Name:    strings.TrimSpace(in.Name),
		Mobile:  strings.TrimSpace(in.Mobile),
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
		Notes:   in.Notes,
		Tag:     in.Tag,
	}
	if c.Tag == "" {
		c.Tag = domain.TagRegular
	}
	return c
}

func mobileTaken(state domain.AppState, mobile, exceptID string) bool {
	for _, c := range state.Customers {
		if c.Mobile == mobile && c.ID != exceptID {
			return true
		}
	}
	return false
}

// CreateCustomer validates and adds a customer. A mobile already registered
// to another customer fails with domain.ErrDuplicateMobile.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (domain.Customer, error) {
	var created domain.Customer
	err := s.run(ctx, "create_customer", func(ctx context.Context) (string, error) {
		c := normalizeCustomer(in)
		if err := domain.ValidateCustomer(c); err != nil {
			return "", err
		}
		now := s.now().UTC()
		c.ID = s.newID()
		c.CreatedAt, c.UpdatedAt = now, now
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			if mobileTaken(state, c.Mobile, "") {
				return nil, fmt.Errorf("mobile %s: %w", c.Mobile, domain.ErrDuplicateMobile)
			}
			return []domain.Action{domain.AddCustomer{Customer: c}}, nil
		})
		if err != nil {
			return c.ID, err
		}
		created = c
		return c.ID, nil
	})
	return created, err
}

// UpdateCustomer applies mutator to a copy of the customer and stores the
// result after validation. The id and creation time cannot be changed.
func (s *Service) UpdateCustomer(ctx context.Context, id string, mutator func(*domain.Customer) error) (domain.Customer, error) {
	var updated domain.Customer
	err := s.run(ctx, "update_customer", func(ctx context.Context) (string, error) {
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			current, ok := CustomerByID(state, id)
			if !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: id}
			}
			next := current
			if err := mutator(&next); err != nil {
				return nil, err
			}
			next.ID, next.CreatedAt = current.ID, current.CreatedAt
			next.Name = strings.TrimSpace(next.Name)
			next.Mobile = strings.TrimSpace(next.Mobile)
			if err := domain.ValidateCustomer(next); err != nil {
				return nil, err
			}
			if mobileTaken(state, next.Mobile, id) {
				return nil, fmt.Errorf("mobile %s: %w", next.Mobile, domain.ErrDuplicateMobile)
			}
			next.UpdatedAt = s.now().UTC()
			updated = next
			return []domain.Action{domain.UpdateCustomer{Customer: next}}, nil
		})
		return id, err
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return updated, nil
}

// DeleteCustomer removes a customer together with its measurements and orders.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	return s.run(ctx, "delete_customer", func(ctx context.Context) (string, error) {
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			if _, ok := CustomerByID(state, id); !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: id}
			}
			return []domain.Action{domain.DeleteCustomer{ID: id}}, nil
		})
		return id, err
	})
}

// RecordMeasurement stores a new measurement for an existing customer.
func (s *Service) RecordMeasurement(ctx context.Context, customerID string, data domain.MeasurementData, notes string) (domain.Measurement, error) {
	var created domain.Measurement
	err := s.run(ctx, "record_measurement", func(ctx context.Context) (string, error) {
		now := s.now().UTC()
		m := domain.Measurement{
			ID:         s.newID(),
			CustomerID: customerID,
			Data:       data,
			Notes:      notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := domain.ValidateMeasurement(m); err != nil {
			return m.ID, err
		}
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			if _, ok := CustomerByID(state, customerID); !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: customerID}
			}
			return []domain.Action{domain.AddMeasurement{Measurement: m}}, nil
		})
		if err != nil {
			return m.ID, err
		}
		created = m
		return m.ID, nil
	})
	return created, err
}

// UpdateMeasurement applies mutator to a copy of the measurement. The id,
// owner and creation time cannot be changed.
func (s *Service) UpdateMeasurement(ctx context.Context, id string, mutator func(*domain.Measurement) error) (domain.Measurement, error) {
	var updated domain.Measurement
	err := s.run(ctx, "update_measurement", func(ctx context.Context) (string, error) {
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			current, ok := MeasurementByID(state, id)
			if !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityMeasurement, ID: id}
			}
			next := current
			if err := mutator(&next); err != nil {
				return nil, err
			}
			next.ID, next.CustomerID, next.CreatedAt = current.ID, current.CustomerID, current.CreatedAt
			if err := domain.ValidateMeasurement(next); err != nil {
				return nil, err
			}
			next.UpdatedAt = s.now().UTC()
			updated = next
			return []domain.Action{domain.UpdateMeasurement{Measurement: next}}, nil
		})
		return id, err
	})
	if err != nil {
		return domain.Measurement{}, err
	}
	return updated, nil
}

// DeleteMeasurement removes one measurement. Order items that referenced it
// keep the dangling id.
func (s *Service) DeleteMeasurement(ctx context.Context, id string) error {
	return s.run(ctx, "delete_measurement", func(ctx context.Context) (string, error) {
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			if _, ok := MeasurementByID(state, id); !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityMeasurement, ID: id}
			}
			return []domain.Action{domain.DeleteMeasurement{ID: id}}, nil
		})
		return id, err
	})
}

// PlaceOrder creates a pending order. The order number is allocated in the
// same transition that inserts the order, so concurrent calls never share one.
func (s *Service) PlaceOrder(ctx context.Context, in OrderInput) (domain.Order, error) {
	var placed domain.Order
	err := s.run(ctx, "place_order", func(ctx context.Context) (string, error) {
		now := s.now()
		order, err := s.draftOrder(in, now)
		if err != nil {
			return "", err
		}
		_, err = s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			if _, ok := CustomerByID(state, order.CustomerID); !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityCustomer, ID: order.CustomerID}
			}
			if err := checkItemMeasurements(state, order, nil); err != nil {
				return nil, err
			}
			order.OrderNumber = NextOrderNumber(state, now)
			return []domain.Action{domain.AddOrder{Order: order}}, nil
		})
		if err != nil {
			return order.ID, err
		}
		placed = order
		return order.ID, nil
	})
	return placed, err
}

func (s *Service) draftOrder(in OrderInput, now time.Time) (domain.Order, error) {
	urgency := in.Urgency
	if urgency == "" {
		urgency = domain.UrgencyNormal
	}
	order := domain.Order{
		ID:           s.newID(),
		CustomerID:   in.CustomerID,
		Items:        make([]domain.OrderItem, 0, len(in.Items)),
		PaidAmount:   in.PaidAmount,
		Status:       domain.StatusPending,
		Urgency:      urgency,
		DeliveryDate: in.DeliveryDate,
		Notes:        in.Notes,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	for _, item := range in.Items {
		if item.ID == "" {
			item.ID = s.newID()
		}
		if in.AutoPrice && item.Price == 0 && item.GarmentType.Valid() && urgency.Valid() {
			price, err := domain.QuotePrice(item.GarmentType, urgency)
			if err != nil {
				return domain.Order{}, err
			}
			item.Price = price
		}
		order.Items = append(order.Items, item)
	}
	if order.DeliveryDate == "" && urgency.Valid() {
		date, err := domain.DefaultDeliveryDate(now, urgency)
		if err != nil {
			return domain.Order{}, err
		}
		order.DeliveryDate = date
	}
	order.Recalculate()
	if err := domain.ValidateOrder(order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// checkItemMeasurements rejects items pointing at a measurement that is
// missing, belongs to another customer or is for another garment. References
// listed in existing were accepted earlier and are not checked again.
func checkItemMeasurements(state domain.AppState, order domain.Order, existing map[string]bool) error {
	verr := &domain.ValidationError{}
	for i, item := range order.Items {
		if item.MeasurementID == "" || existing[item.MeasurementID] {
			continue
		}
		m, ok := MeasurementByID(state, item.MeasurementID)
		field := fmt.Sprintf("items[%d].measurementId", i)
		switch {
		case !ok:
			verr.Add(field, "unknown measurement")
		case m.CustomerID != order.CustomerID:
			verr.Add(field, "belongs to another customer")
		case m.Garment() != item.GarmentType:
			verr.Add(field, fmt.Sprintf("is a %s measurement", m.Garment()))
		}
	}
	return verr.OrNil()
}

// UpdateOrder applies mutator to a copy of the order. The id, number, owner
// and creation time are fixed; a status change must follow the workflow.
func (s *Service) UpdateOrder(ctx context.Context, id string, mutator func(*domain.Order) error) (domain.Order, error) {
	var updated domain.Order
	err := s.run(ctx, "update_order", func(ctx context.Context) (string, error) {
		var err error
		updated, err = s.updateOrder(ctx, id, mutator)
		return id, err
	})
	return updated, err
}

// AdvanceOrderStatus moves an order to status.
func (s *Service) AdvanceOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	var updated domain.Order
	err := s.run(ctx, "advance_order_status", func(ctx context.Context) (string, error) {
		var err error
		updated, err = s.updateOrder(ctx, id, func(o *domain.Order) error {
			o.Status = status
			return nil
		})
		return id, err
	})
	return updated, err
}

// RecordPayment sets the total paid so far. Paying more than the total is
// accepted and leaves the order paid.
func (s *Service) RecordPayment(ctx context.Context, id string, paidAmount float64) (domain.Order, error) {
	var updated domain.Order
	err := s.run(ctx, "record_payment", func(ctx context.Context) (string, error) {
		var err error
		updated, err = s.updateOrder(ctx, id, func(o *domain.Order) error {
			o.PaidAmount = paidAmount
			return nil
		})
		return id, err
	})
	return updated, err
}

func (s *Service) updateOrder(ctx context.Context, id string, mutator func(*domain.Order) error) (domain.Order, error) {
	var updated domain.Order
	_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
		current, ok := OrderByID(state, id)
		if !ok {
			return nil, domain.ErrNotFound{Entity: domain.EntityOrder, ID: id}
		}
		next := current
		next.Items = append([]domain.OrderItem(nil), current.Items...)
		if err := mutator(&next); err != nil {
			return nil, err
		}
		next.ID, next.OrderNumber, next.CustomerID, next.CreatedAt = current.ID, current.OrderNumber, current.CustomerID, current.CreatedAt
		if next.Status != current.Status && !current.Status.CanTransitionTo(next.Status) {
			verr := &domain.ValidationError{}
			verr.Add("status", fmt.Sprintf("cannot move from %s to %s", current.Status, next.Status))
			return nil, verr
		}
		for i := range next.Items {
			if next.Items[i].ID == "" {
				next.Items[i].ID = s.newID()
			}
		}
		next.Recalculate()
		if err := domain.ValidateOrder(next); err != nil {
			return nil, err
		}
		existing := make(map[string]bool, len(current.Items))
		for _, item := range current.Items {
			existing[item.MeasurementID] = true
		}
		if err := checkItemMeasurements(state, next, existing); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.now().UTC()
		updated = next
		return []domain.Action{domain.UpdateOrder{Order: next}}, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// DeleteOrder removes one order.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.run(ctx, "delete_order", func(ctx context.Context) (string, error) {
		_, err := s.store.Update(ctx, func(state domain.AppState) ([]domain.Action, error) {
			if _, ok := OrderByID(state, id); !ok {
				return nil, domain.ErrNotFound{Entity: domain.EntityOrder, ID: id}
			}
			return []domain.Action{domain.DeleteOrder{ID: id}}, nil
		})
		return id, err
	})
}
