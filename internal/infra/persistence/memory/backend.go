// Package memory keeps persisted records in process memory. State does not
// survive a restart; it backs tests and the ephemeral storage mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tailorbook/internal/infra/persistence"
)

// Backend is a mutex-guarded map of keys to record bytes.
type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
	// FailWrites makes every Write fail, for exercising the in-memory fallback.
	FailWrites bool
	// FailReads makes every Read of a stored key fail with an I/O error.
	FailReads bool
}

var _ persistence.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{values: make(map[string][]byte)}
}

// Read returns a copy of the stored value.
func (b *Backend) Read(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	if b.FailReads {
		return nil, fmt.Errorf("memory backend: read %s refused", key)
	}
	return append([]byte(nil), v...), nil
}

// Write stores a copy of data under key.
func (b *Backend) Write(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		return fmt.Errorf("memory backend: write %s refused", key)
	}
	b.values[key] = append([]byte(nil), data...)
	b.writes++
	return nil
}

// Writes reports how many writes succeeded.
func (b *Backend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }
