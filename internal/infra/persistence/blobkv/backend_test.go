package blobkv

import (
	"context"
	"errors"
	"io"
	"testing"

	"tailorbook/internal/blob"
	"tailorbook/internal/infra/persistence"
)

func TestBackendReadWrite(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	b, err := New(store, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := b.Read(ctx, "tailor_app_data"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, payload := range []string{`{"version":1}`, `{"version":1,"isOnline":true}`} {
		if err := b.Write(ctx, "tailor_app_data", []byte(payload)); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := b.Read(ctx, "tailor_app_data")
		if err != nil || string(got) != payload {
			t.Fatalf("read back %q, %v", got, err)
		}
	}
	info, rc, err := store.Get(ctx, "state/tailor_app_data.json")
	if err != nil {
		t.Fatalf("object missing: %v", err)
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
	if info.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil, ""); err == nil {
		t.Fatalf("expected error for nil store")
	}
}
