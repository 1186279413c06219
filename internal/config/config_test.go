package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, "./tailorbook.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.Connectivity.Interval)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestParseOverlaysYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
storage:
  driver: postgres
  postgres_dsn: postgres://shop@db/tailorbook
blob:
  driver: s3
  s3:
    bucket: shop-backups
    path_style: true
connectivity:
  interval: 5s
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://shop@db/tailorbook", cfg.Storage.PostgresDSN)
	assert.Equal(t, "shop-backups", cfg.Blob.S3.Bucket)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.Equal(t, 5*time.Second, cfg.Connectivity.Interval)
	assert.Equal(t, "1.1.1.1:53", cfg.Connectivity.Addr, "unset keys keep defaults")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("storage: [unterminated"))
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tailorbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\nlog:\n  level: debug\n"), 0o600))
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvStorageDriver, "blob")
	t.Setenv(EnvBlobDriver, "memory")
	t.Setenv(EnvConnectivityInterval, "750ms")
	t.Setenv(EnvConnectivityTimeout, "1500ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageBlob, cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.Blob.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 750*time.Millisecond, cfg.Connectivity.Interval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Connectivity.Timeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvStorageDriver, "mongo")
	_, err := Load()
	require.ErrorContains(t, err, "unknown storage driver")

	t.Setenv(EnvStorageDriver, "")
	t.Setenv(EnvConnectivityInterval, "soon")
	_, err = Load()
	require.ErrorContains(t, err, EnvConnectivityInterval)

	t.Setenv(EnvConnectivityInterval, "")
	t.Setenv(EnvConnectivityTimeout, "later")
	_, err = Load()
	require.ErrorContains(t, err, EnvConnectivityTimeout)

	t.Setenv(EnvConnectivityTimeout, "0s")
	_, err = Load()
	require.ErrorContains(t, err, "connectivity timeout must be positive")
}

func TestValidateRequiresBucketForS3(t *testing.T) {
	cfg := Default()
	cfg.Blob.Driver = "s3"
	require.Error(t, cfg.Validate())
	cfg.Blob.S3.Bucket = "b"
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
}
