// Package persistence stores the whole tailorbook state as one versioned JSON
// record under a single key. Backends only move bytes; the Adapter owns the
// record format and the first-run fallback.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"tailorbook/pkg/domain"
)

// RecordVersion is the record format written by this package.
const RecordVersion = 1

var (
	// ErrNotFound is returned by a Backend when no value is stored under a key.
	ErrNotFound = errors.New("persistence: record not found")
	// ErrUnsupportedVersion marks a record written by a newer release.
	ErrUnsupportedVersion = errors.New("persistence: unsupported record version")
	// ErrUnreadable marks a stored record the backend failed to read.
	ErrUnreadable = errors.New("persistence: stored record could not be read")
)

// Backend reads and writes opaque values by key.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Close() error
}

// Logger is the subset of the service logger the adapter needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// OnlineFunc reports connectivity for the first-run state.
type OnlineFunc func(ctx context.Context) bool

// Adapter implements domain.Storage over a Backend.
type Adapter struct {
	backend Backend
	key     string
	online  OnlineFunc
	logger  Logger

	mu sync.Mutex
	// held is set when Load found a record it could not use without it being
	// missing or corrupt; Save then refuses to replace it.
	held error
}

var _ domain.Storage = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithLogger routes adapter diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithOnlineProbe sets how the first-run state learns the connectivity flag.
func WithOnlineProbe(fn OnlineFunc) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.online = fn
		}
	}
}

// NewAdapter wraps backend. It fails only on a nil backend.
func NewAdapter(backend Backend, opts ...Option) (*Adapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("persistence backend is required")
	}
	a := &Adapter{
		backend: backend,
		key:     domain.StorageKey,
		online:  func(context.Context) bool { return true },
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Key returns the storage key the adapter reads and writes.
func (a *Adapter) Key() string { return a.key }

// Backend returns the wrapped backend.
func (a *Adapter) Backend() Backend { return a.backend }

// Load returns the stored state, or the first-run state when the record is
// missing, unreadable or from a newer release. It never fails. After a read
// failure or a newer-release record the adapter runs in memory only.
func (a *Adapter) Load(ctx context.Context) domain.AppState {
	data, err := a.backend.Read(ctx, a.key)
	switch {
	case errors.Is(err, ErrNotFound):
		a.logger.Info("no stored state, starting fresh", "key", a.key)
		return a.firstRun(ctx)
	case err != nil:
		a.hold(ErrUnreadable)
		a.logger.Warn("read stored state failed, running in memory", "key", a.key, "error", err)
		return a.firstRun(ctx)
	}
	state, err := DecodeRecord(data)
	if errors.Is(err, ErrUnsupportedVersion) {
		a.hold(ErrUnsupportedVersion)
		a.logger.Warn("stored state written by a newer release, running in memory", "key", a.key, "error", err)
		return a.firstRun(ctx)
	}
	if err != nil {
		a.logger.Warn("stored state is corrupt, starting fresh", "key", a.key, "error", err)
		return a.firstRun(ctx)
	}
	return state
}

// Save overwrites the record with state. Failures are logged and returned so
// the caller can leave the state unmarked; they are never fatal.
func (a *Adapter) Save(ctx context.Context, state domain.AppState) error {
	a.mu.Lock()
	held := a.held
	a.mu.Unlock()
	if held != nil {
		return fmt.Errorf("save %s: %w", a.key, held)
	}
	data, err := EncodeRecord(state)
	if err != nil {
		a.logger.Warn("encode state failed", "key", a.key, "error", err)
		return fmt.Errorf("encode state: %w", err)
	}
	if err := a.backend.Write(ctx, a.key, data); err != nil {
		a.logger.Warn("write state failed", "key", a.key, "error", err)
		return fmt.Errorf("write %s: %w", a.key, err)
	}
	return nil
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

func (a *Adapter) hold(reason error) {
	a.mu.Lock()
	a.held = reason
	a.mu.Unlock()
}

func (a *Adapter) firstRun(ctx context.Context) domain.AppState {
	return domain.NewAppState(a.online(ctx))
}

type record struct {
	Version      int                  `json:"version"`
	Customers    []domain.Customer    `json:"customers"`
	Measurements []domain.Measurement `json:"measurements"`
	Orders       []domain.Order       `json:"orders"`
	LastSynced   *time.Time           `json:"lastSynced"`
	IsOnline     bool                 `json:"isOnline"`
}

// EncodeRecord serializes state in the current record format.
func EncodeRecord(state domain.AppState) ([]byte, error) {
	rec := record{
		Version:      RecordVersion,
		Customers:    state.Customers,
		Measurements: state.Measurements,
		Orders:       state.Orders,
		LastSynced:   state.LastSynced,
		IsOnline:     state.IsOnline,
	}
	if rec.Customers == nil {
		rec.Customers = []domain.Customer{}
	}
	if rec.Measurements == nil {
		rec.Measurements = []domain.Measurement{}
	}
	if rec.Orders == nil {
		rec.Orders = []domain.Order{}
	}
	return json.Marshal(rec)
}

// DecodeRecord parses a stored record. A missing version is read as version
// 1; a higher version yields ErrUnsupportedVersion. Derived order fields are
// recomputed so a hand-edited record cannot carry stale totals.
func DecodeRecord(data []byte) (domain.AppState, error) {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return domain.AppState{}, fmt.Errorf("decode record: %w", err)
	}
	if probe.Version != nil && (*probe.Version < 1 || *probe.Version > RecordVersion) {
		return domain.AppState{}, fmt.Errorf("version %d: %w", *probe.Version, ErrUnsupportedVersion)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.AppState{}, fmt.Errorf("decode record: %w", err)
	}
	state := domain.AppState{
		Customers:    rec.Customers,
		Measurements: rec.Measurements,
		Orders:       rec.Orders,
		LastSynced:   rec.LastSynced,
		IsOnline:     rec.IsOnline,
	}
	if state.Customers == nil {
		state.Customers = []domain.Customer{}
	}
	if state.Measurements == nil {
		state.Measurements = []domain.Measurement{}
	}
	if state.Orders == nil {
		state.Orders = []domain.Order{}
	}
	for i := range state.Orders {
		if state.Orders[i].Items == nil {
			state.Orders[i].Items = []domain.OrderItem{}
		}
		state.Orders[i].Recalculate()
	}
	return state, nil
}
