package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tailorbook/internal/blob"
	"tailorbook/pkg/domain"
)

func TestBackupKey(t *testing.T) {
	at := time.Date(2026, 10, 16, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	if got := BackupKey(at); got != "backups/tailor_app_data-2026-10-16T05:00:00Z.json" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestBackupListRestore(t *testing.T) {
	ctx := context.Background()
	clock := &steppingClock{now: shopDay}
	store, _ := newTestStore(t, WithStoreClock(clock))
	svc := NewService(store, WithClock(clock))
	blobs := blob.NewMemory()

	c := mustCustomer(t, svc, "Asha", "9000000001")
	if _, err := svc.PlaceOrder(ctx, OrderInput{CustomerID: c.ID, Items: []domain.OrderItem{{GarmentType: domain.GarmentShirt, Quantity: 1, Price: 800}}}); err != nil {
		t.Fatalf("place: %v", err)
	}

	info, err := store.Backup(ctx, blobs)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if info.Key != BackupKey(shopDay) || info.Metadata["orders"] != "1" {
		t.Fatalf("unexpected backup info %+v", info)
	}
	if _, err := store.Backup(ctx, blobs); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("a second backup in the same second must not overwrite, got %v", err)
	}

	if err := svc.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	clock.Set(shopDay.Add(time.Hour))
	if _, err := store.Backup(ctx, blobs); err != nil {
		t.Fatalf("second backup: %v", err)
	}
	if _, err := blobs.Put(ctx, BackupPrefix+"notes.txt", strings.NewReader("x"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	infos, err := ListBackups(ctx, blobs)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != info.Key {
		t.Fatalf("unexpected backups %+v", infos)
	}

	restored, err := store.Restore(ctx, blobs, info.Key)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(restored.Customers) != 1 || len(restored.Orders) != 1 || restored.Orders[0].TotalAmount != 800 {
		t.Fatalf("unexpected restored state %+v", restored)
	}
	if !restored.IsOnline {
		t.Fatalf("restore must not touch connectivity")
	}

	if _, err := store.Restore(ctx, blobs, "backups/missing.json"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Restore(ctx, blobs, BackupPrefix+"notes.txt"); err == nil {
		t.Fatalf("expected decode failure")
	}
}
