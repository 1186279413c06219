package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tailorbook/pkg/domain"
)

// Store owns the application state. Every mutation runs the reducer, the
// rules engine and a synchronous persistence write under one lock, so writes
// complete in the order they were issued.
type Store struct {
	mu      sync.Mutex
	state   domain.AppState
	storage domain.Storage
	engine  *RulesEngine
	logger  Logger
	nowFn   func() time.Time
	persist PersistObserver

	subsMu  sync.Mutex
	subs    []subscription
	nextSub int
}

type subscription struct {
	id int
	fn func(domain.AppState)
}

// PersistObserver is told about every persistence attempt.
type PersistObserver interface {
	ObservePersist(ctx context.Context, err error, duration time.Duration)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithRulesEngine replaces the default rules. A nil engine disables rule
// evaluation, leaving the bare reducer path.
func WithRulesEngine(engine *RulesEngine) StoreOption {
	return func(s *Store) { s.engine = engine }
}

// WithStoreLogger routes store diagnostics to logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock sets the clock used for LastSynced.
func WithStoreClock(clock Clock) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.nowFn = clock.Now
		}
	}
}

// WithPersistObserver reports persistence outcomes, for metrics.
func WithPersistObserver(obs PersistObserver) StoreOption {
	return func(s *Store) { s.persist = obs }
}

// NewStore loads the initial state from storage and returns a ready store.
func NewStore(ctx context.Context, storage domain.Storage, opts ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	s := &Store{
		storage: storage,
		engine:  NewDefaultRulesEngine(),
		logger:  noopLogger{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = storage.Load(ctx)
	return s, nil
}

// State returns a deep copy of the current state.
func (s *Store) State() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// RulesEngine returns the engine evaluated on every transition, possibly nil.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// Subscribe registers fn to receive a copy of the state after every committed
// transition. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(domain.AppState)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch applies a single action. It fails only when a rule blocks the
// transition; persistence failures are logged and never returned.
func (s *Store) Dispatch(ctx context.Context, action domain.Action) error {
	_, err := s.Update(ctx, func(domain.AppState) ([]domain.Action, error) {
		return []domain.Action{action}, nil
	})
	return err
}

// Update runs fn against a copy of the current state and applies the actions
// it returns as one transition. Nothing is applied when fn fails or a rule
// blocks; otherwise the new state is persisted and subscribers are notified.
func (s *Store) Update(ctx context.Context, fn func(domain.AppState) ([]domain.Action, error)) (Result, error) {
	s.mu.Lock()
	actions, err := fn(s.state.Clone())
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	prev := s.state
	next := prev
	changed := false
	var changes []Change
	for _, action := range actions {
		changes = append(changes, domain.Changes(next, action)...)
		var ok bool
		next, ok = domain.Apply(next, action)
		changed = changed || ok
	}
	if !changed {
		s.mu.Unlock()
		return Result{}, nil
	}

	var result Result
	if s.engine != nil && len(changes) > 0 {
		res, err := s.engine.Evaluate(ctx, domain.StateView{State: next, Before: &prev}, changes)
		if err != nil {
			s.mu.Unlock()
			return Result{}, fmt.Errorf("evaluate rules: %w", err)
		}
		result = res
		if res.HasBlocking() {
			s.mu.Unlock()
			return res, RuleViolationError{Result: res}
		}
		for _, v := range res.Violations {
			s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "entity", v.Entity, "entity_id", v.EntityID, "message", v.Message)
		}
	}

	_, explicit := actions[len(actions)-1].(domain.SetSynced)
	s.state = s.save(ctx, next, !explicit)
	committed := s.state
	s.mu.Unlock()

	s.notify(committed)
	return result, nil
}

// save writes next and, on success, returns it stamped with the sync time.
// With stamp false the LastSynced already in next is written as-is, so a
// transition ending in SetSynced keeps its timestamp. A failed write keeps
// next in memory without a new stamp.
func (s *Store) save(ctx context.Context, next domain.AppState, stamp bool) domain.AppState {
	synced := next
	if stamp {
		at := s.nowFn()
		synced.LastSynced = &at
	}
	start := time.Now()
	err := s.storage.Save(ctx, synced)
	if s.persist != nil {
		s.persist.ObservePersist(ctx, err, time.Since(start))
	}
	if err != nil {
		s.logger.Error("persist state failed", "error", err)
		return next
	}
	return synced
}

func (s *Store) notify(state domain.AppState) {
	s.subsMu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.subsMu.Unlock()
	for _, sub := range subs {
		sub.fn(state.Clone())
	}
}
