package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq atomic.Uint64

// ExpvarMetricsRecorder publishes operation and persistence counters as one
// expvar map, served at /debug/vars:
//
//	durations_ms_total  {operation: float}
//	results_total       {operation: {success|error: int}}
//	persists_total      {success|error: int}
type ExpvarMetricsRecorder struct {
	name      string
	root      *expvar.Map
	durations *expvar.Map
	results   *expvar.Map
	persists  *expvar.Map
	mu        sync.Mutex
}

// ExpvarMetricsSnapshot is a point-in-time copy of an ExpvarMetricsRecorder.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Persists    map[string]int64            `json:"persists_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated tailorbook_metrics_N name when name is empty. expvar names are
// process-global, so publishing the same name twice panics.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("tailorbook_metrics_%d", expvarSeq.Add(1))
	}
	r := &ExpvarMetricsRecorder{
		name:      name,
		root:      new(expvar.Map).Init(),
		durations: new(expvar.Map).Init(),
		results:   new(expvar.Map).Init(),
		persists:  new(expvar.Map).Init(),
	}
	r.root.Set("durations_ms_total", r.durations)
	r.root.Set("results_total", r.results)
	r.root.Set("persists_total", r.persists)
	expvar.Publish(name, r.root)
	return r
}

// Name is the expvar key the recorder is published under.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.durations.AddFloat(operation, float64(duration)/float64(time.Millisecond))
	r.operationResults(operation).Add(statusLabel(success), 1)
}

// ObservePersist implements PersistObserver.
func (r *ExpvarMetricsRecorder) ObservePersist(_ context.Context, err error, _ time.Duration) {
	r.persists.Add(statusLabel(err == nil), 1)
}

func (r *ExpvarMetricsRecorder) operationResults(operation string) *expvar.Map {
	if m, ok := r.results.Get(operation).(*expvar.Map); ok {
		return m
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.results.Get(operation).(*expvar.Map); ok {
		return m
	}
	m := new(expvar.Map).Init()
	r.results.Set(operation, m)
	return m
}

// Snapshot copies the current counters.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64),
		Results:     make(map[string]map[string]int64),
		Persists:    intMap(r.persists),
		RecordedAt:  time.Now().UTC(),
	}
	r.durations.Do(func(kv expvar.KeyValue) {
		if f, ok := kv.Value.(*expvar.Float); ok {
			snap.DurationsMS[kv.Key] = f.Value()
		}
	})
	r.results.Do(func(kv expvar.KeyValue) {
		if m, ok := kv.Value.(*expvar.Map); ok {
			snap.Results[kv.Key] = intMap(m)
		}
	})
	return snap
}

func intMap(m *expvar.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Do(func(kv expvar.KeyValue) {
		if v, ok := kv.Value.(*expvar.Int); ok {
			out[kv.Key] = v.Value()
		}
	})
	return out
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// JSONTraceEntry is one finished span.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer keeps finished spans in memory and, when built with a
// writer, also writes each one as a JSON line.
type JSONTraceTracer struct {
	mu      sync.Mutex
	out     io.Writer
	entries []JSONTraceEntry
}

// NewJSONTracer returns a tracer writing to w. w may be nil.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	return &JSONTraceTracer{out: w}
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, entry: JSONTraceEntry{Operation: operation, StartedAt: time.Now().UTC()}}
}

// Entries returns the spans finished so far, oldest first.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

func (t *JSONTraceTracer) finish(entry JSONTraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.out == nil {
		return
	}
	if line, err := json.Marshal(entry); err == nil {
		_, _ = t.out.Write(append(line, '\n'))
	}
}

type jsonSpan struct {
	tracer *JSONTraceTracer
	entry  JSONTraceEntry
}

func (s *jsonSpan) End(err error) {
	e := s.entry
	e.EndedAt = time.Now().UTC()
	e.DurationMS = float64(e.EndedAt.Sub(e.StartedAt)) / float64(time.Millisecond)
	e.Status = statusLabel(err == nil)
	if err != nil {
		e.Error = err.Error()
	}
	s.tracer.finish(e)
}

// LogAuditRecorder logs audit entries: successes at info, failures at warn.
type LogAuditRecorder struct {
	logger Logger
}

// NewLogAuditRecorder returns a recorder that logs through logger.
func NewLogAuditRecorder(logger Logger) *LogAuditRecorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogAuditRecorder{logger: logger}
}

// Record implements AuditRecorder.
func (r *LogAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	args := []any{
		"operation", entry.Operation,
		"entity", entry.Entity,
		"action", entry.Action,
		"entity_id", entry.EntityID,
		"duration", entry.Duration,
		"at", entry.Timestamp,
	}
	if entry.Status == AuditStatusError {
		r.logger.Warn("audit", append(args, "error", entry.Error)...)
		return
	}
	r.logger.Info("audit", args...)
}
