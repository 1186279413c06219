package connectivity

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailorbook/pkg/domain"
)

type recordingStore struct {
	mu      sync.Mutex
	actions []domain.Action
	fail    bool
}

func (r *recordingStore) Dispatch(_ context.Context, action domain.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("blocked")
	}
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingStore) snapshot() []domain.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Action(nil), r.actions...)
}

func TestCheckDispatchesOnlyTransitions(t *testing.T) {
	ctx := context.Background()
	probe := NewStaticProbe(true)
	store := &recordingStore{}
	obs := NewObserver(probe, store, time.Second, nil)

	assert.True(t, obs.Check(ctx))
	assert.True(t, obs.Check(ctx))
	probe.Set(false)
	assert.False(t, obs.Check(ctx))
	assert.False(t, obs.Check(ctx))
	probe.Set(true)
	obs.Check(ctx)

	assert.Equal(t, []domain.Action{
		domain.SetOnline{Online: true},
		domain.SetOnline{Online: false},
		domain.SetOnline{Online: true},
	}, store.snapshot())
}

func TestConcurrentChecksDispatchOnce(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{}
	obs := NewObserver(NewStaticProbe(false), store, time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs.Check(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, []domain.Action{domain.SetOnline{Online: false}}, store.snapshot())
}

func TestCheckRetriesAfterDispatchFailure(t *testing.T) {
	ctx := context.Background()
	store := &recordingStore{fail: true}
	obs := NewObserver(NewStaticProbe(false), store, time.Second, nil)
	obs.Check(ctx)
	require.Empty(t, store.snapshot())

	store.fail = false
	obs.Check(ctx)
	assert.Equal(t, []domain.Action{domain.SetOnline{Online: false}}, store.snapshot())
}

func TestRunStopsOnCancel(t *testing.T) {
	probe := NewStaticProbe(true)
	store := &recordingStore{}
	obs := NewObserver(probe, store, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- obs.Run(ctx) }()

	require.Eventually(t, func() bool { return len(store.snapshot()) == 1 }, time.Second, time.Millisecond)
	probe.Set(false)
	require.Eventually(t, func() bool { return len(store.snapshot()) == 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("observer did not stop")
	}
}

func TestTCPProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	assert.True(t, TCPProbe{Addr: addr, Timeout: time.Second}.Online(context.Background()))
	require.NoError(t, ln.Close())
	assert.False(t, TCPProbe{Addr: addr, Timeout: 200 * time.Millisecond}.Online(context.Background()))
}

func TestProbeFunc(t *testing.T) {
	var p Probe = ProbeFunc(func(context.Context) bool { return true })
	assert.True(t, p.Online(context.Background()))
}
