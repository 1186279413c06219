// Package connectivity watches network reachability and records it in the
// store as SetOnline transitions.
package connectivity

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"tailorbook/pkg/domain"
)

// Probe reports whether the network is currently reachable.
type Probe interface {
	Online(ctx context.Context) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) bool

// Online implements Probe.
func (f ProbeFunc) Online(ctx context.Context) bool { return f(ctx) }

// TCPProbe treats a successful TCP dial to Addr as online.
type TCPProbe struct {
	Addr    string
	Timeout time.Duration
}

// Online implements Probe.
func (p TCPProbe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// StaticProbe reports a value that tests and offline mode can flip.
type StaticProbe struct {
	online atomic.Bool
}

// NewStaticProbe returns a probe fixed at online.
func NewStaticProbe(online bool) *StaticProbe {
	p := &StaticProbe{}
	p.online.Store(online)
	return p
}

// Set changes the reported value.
func (p *StaticProbe) Set(online bool) { p.online.Store(online) }

// Online implements Probe.
func (p *StaticProbe) Online(context.Context) bool { return p.online.Load() }

// Dispatcher is the store surface the observer needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, action domain.Action) error
}

// Logger is the subset of the service logger used here.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Observer polls a Probe and dispatches SetOnline when the result changes.
type Observer struct {
	probe    Probe
	store    Dispatcher
	interval time.Duration
	logger   Logger

	// mu serializes checks so the last observation and dispatch order agree.
	mu    sync.Mutex
	last  bool
	known bool
}

// NewObserver builds an observer polling every interval.
func NewObserver(probe Probe, store Dispatcher, interval time.Duration, logger Logger) *Observer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Observer{probe: probe, store: store, interval: interval, logger: logger}
}

// Check probes once and dispatches when connectivity differs from the last
// observation. The first check always dispatches. It reports the probe result.
// Check is safe to call from several goroutines.
func (o *Observer) Check(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	online := o.probe.Online(ctx)
	if o.known && online == o.last {
		return online
	}
	if err := o.store.Dispatch(ctx, domain.SetOnline{Online: online}); err != nil {
		o.logger.Warn("dispatch connectivity change failed", "online", online, "error", err)
		return online
	}
	o.logger.Debug("connectivity changed", "online", online)
	o.last, o.known = online, true
	return online
}

// Run checks immediately, then on every tick until ctx is cancelled.
func (o *Observer) Run(ctx context.Context) error {
	o.Check(ctx)
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.Check(ctx)
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
