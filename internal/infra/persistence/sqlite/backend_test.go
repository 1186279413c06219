package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tailorbook/internal/infra/persistence"
	"tailorbook/pkg/domain"
)

func TestBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tailorbook.db")
	b, err := NewBackend(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := b.Read(ctx, domain.StorageKey); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := b.Write(ctx, domain.StorageKey, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Write(ctx, domain.StorageKey, []byte(`{"version":1,"isOnline":true}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewBackend(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Read(ctx, domain.StorageKey)
	if err != nil || string(got) != `{"version":1,"isOnline":true}` {
		t.Fatalf("unexpected payload %q, %v", got, err)
	}
	var rows int
	if err := reopened.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&rows); err != nil || rows != 1 {
		t.Fatalf("expected one row, got %d (%v)", rows, err)
	}
}

func TestAdapterOverSQLite(t *testing.T) {
	ctx := context.Background()
	b, err := NewBackend(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	adapter, err := persistence.NewAdapter(b)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	defer func() { _ = adapter.Close() }()
	state := domain.NewAppState(false)
	state.Customers = append(state.Customers, domain.Customer{ID: "c1", Name: "Meera", Mobile: "9000000001", Tag: domain.TagVIP})
	if err := adapter.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := adapter.Load(ctx)
	if len(loaded.Customers) != 1 || loaded.Customers[0].Name != "Meera" || loaded.IsOnline {
		t.Fatalf("unexpected state %+v", loaded)
	}
}
