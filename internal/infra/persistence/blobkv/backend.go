// Package blobkv persists records as objects in a blob.Store, one object per
// key, replaced in place on every write.
package blobkv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"tailorbook/internal/blob"
	"tailorbook/internal/infra/persistence"
)

// DefaultPrefix namespaces state records inside the blob store.
const DefaultPrefix = "state"

// Backend adapts a blob.Store to persistence.Backend.
type Backend struct {
	store  blob.Store
	prefix string
}

var _ persistence.Backend = (*Backend)(nil)

// New wraps store. An empty prefix selects DefaultPrefix.
func New(store blob.Store, prefix string) (*Backend, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{store: store, prefix: prefix}, nil
}

func (b *Backend) objectKey(key string) string {
	return path.Join(b.prefix, key+".json")
}

// Read fetches the object for key.
func (b *Backend) Read(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := b.store.Get(ctx, b.objectKey(key))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Write replaces the object for key.
func (b *Backend) Write(ctx context.Context, key string, data []byte) error {
	_, err := b.store.Put(ctx, b.objectKey(key), bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Overwrite:   true,
	})
	return err
}

// Close is a no-op; the blob store is owned by the caller.
func (b *Backend) Close() error { return nil }
