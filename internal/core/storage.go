package core

import (
	"context"
	"fmt"

	"tailorbook/internal/blob"
	"tailorbook/internal/config"
	"tailorbook/internal/infra/persistence"
	"tailorbook/internal/infra/persistence/blobkv"
	"tailorbook/internal/infra/persistence/memory"
	"tailorbook/internal/infra/persistence/postgres"
	"tailorbook/internal/infra/persistence/sqlite"
)

// OpenBlobStore constructs the blob store described by cfg.
func OpenBlobStore(ctx context.Context, cfg config.Blob) (blob.Store, error) {
	return blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.Driver),
		FSRoot: cfg.FSRoot,
		S3: blob.S3Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		},
	})
}

// OpenStorage selects a persistence backend from cfg and wraps it in the
// record adapter. The blob driver shares the store built from cfg.Blob.
func OpenStorage(ctx context.Context, cfg config.Config, opts ...persistence.Option) (*persistence.Adapter, error) {
	var (
		backend persistence.Backend
		err     error
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		backend = memory.New()
	case config.StorageSQLite, "":
		backend, err = sqlite.NewBackend(ctx, cfg.Storage.SQLitePath)
	case config.StoragePostgres:
		backend, err = postgres.NewBackend(ctx, cfg.Storage.PostgresDSN)
	case config.StorageBlob:
		var store blob.Store
		store, err = OpenBlobStore(ctx, cfg.Blob)
		if err == nil {
			backend, err = blobkv.New(store, "")
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	return persistence.NewAdapter(backend, opts...)
}
