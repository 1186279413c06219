// Package config loads tailorbook settings from an optional YAML file, an
// optional .env file and the process environment, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment keys.
const (
	EnvConfigFile           = "TAILORBOOK_CONFIG"
	EnvStorageDriver        = "TAILORBOOK_STORAGE_DRIVER"
	EnvSQLitePath           = "TAILORBOOK_SQLITE_PATH"
	EnvPostgresDSN          = "TAILORBOOK_POSTGRES_DSN"
	EnvBlobDriver           = "TAILORBOOK_BLOB_DRIVER"
	EnvBlobFSRoot           = "TAILORBOOK_BLOB_FS_ROOT"
	EnvBlobS3Bucket         = "TAILORBOOK_BLOB_S3_BUCKET"
	EnvBlobS3Region         = "TAILORBOOK_BLOB_S3_REGION"
	EnvBlobS3Endpoint       = "TAILORBOOK_BLOB_S3_ENDPOINT"
	EnvBlobS3AccessKey      = "TAILORBOOK_BLOB_S3_ACCESS_KEY_ID"
	EnvBlobS3SecretKey      = "TAILORBOOK_BLOB_S3_SECRET_ACCESS_KEY"
	EnvBlobS3PathStyle      = "TAILORBOOK_BLOB_S3_PATH_STYLE"
	EnvConnectivityAddr     = "TAILORBOOK_CONNECTIVITY_ADDR"
	EnvConnectivityInterval = "TAILORBOOK_CONNECTIVITY_INTERVAL"
	EnvConnectivityTimeout  = "TAILORBOOK_CONNECTIVITY_TIMEOUT"
	EnvMetricsAddr          = "TAILORBOOK_METRICS_ADDR"
	EnvLogLevel             = "TAILORBOOK_LOG_LEVEL"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageBlob     = "blob"
)

// Config is the full runtime configuration.
type Config struct {
	Storage      Storage      `yaml:"storage"`
	Blob         Blob         `yaml:"blob"`
	Connectivity Connectivity `yaml:"connectivity"`
	Metrics      Metrics      `yaml:"metrics"`
	Log          Log          `yaml:"log"`
}

// Storage selects where the state record lives.
type Storage struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Blob configures the blob store used for backups and the blob storage driver.
type Blob struct {
	Driver string `yaml:"driver"`
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// S3 holds S3 or MinIO connection settings.
type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Connectivity configures the reachability probe.
type Connectivity struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Metrics configures the metrics listener.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Log configures the process logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: Storage{Driver: StorageSQLite, SQLitePath: "./tailorbook.db"},
		Blob:    Blob{Driver: "fs", FSRoot: "./blobdata"},
		Connectivity: Connectivity{
			Addr:     "1.1.1.1:53",
			Interval: 30 * time.Second,
			Timeout:  3 * time.Second,
		},
		Metrics: Metrics{Addr: ":9090"},
		Log:     Log{Level: "info"},
	}
}

// Load reads .env (when present), then the YAML file named by
// TAILORBOOK_CONFIG (when set), then environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse overlays YAML data onto the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setString(EnvStorageDriver, &c.Storage.Driver)
	setString(EnvSQLitePath, &c.Storage.SQLitePath)
	setString(EnvPostgresDSN, &c.Storage.PostgresDSN)
	setString(EnvBlobDriver, &c.Blob.Driver)
	setString(EnvBlobFSRoot, &c.Blob.FSRoot)
	setString(EnvBlobS3Bucket, &c.Blob.S3.Bucket)
	setString(EnvBlobS3Region, &c.Blob.S3.Region)
	setString(EnvBlobS3Endpoint, &c.Blob.S3.Endpoint)
	setString(EnvBlobS3AccessKey, &c.Blob.S3.AccessKeyID)
	setString(EnvBlobS3SecretKey, &c.Blob.S3.SecretAccessKey)
	setString(EnvConnectivityAddr, &c.Connectivity.Addr)
	setString(EnvMetricsAddr, &c.Metrics.Addr)
	setString(EnvLogLevel, &c.Log.Level)
	if v := getenv(EnvBlobS3PathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBlobS3PathStyle, err)
		}
		c.Blob.S3.PathStyle = b
	}
	if v := getenv(EnvConnectivityInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectivityInterval, err)
		}
		c.Connectivity.Interval = d
	}
	if v := getenv(EnvConnectivityTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConnectivityTimeout, err)
		}
		c.Connectivity.Timeout = d
	}
	return nil
}

// Validate rejects unknown drivers and non-positive intervals or timeouts.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres, StorageBlob:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "fs", "s3", "memory":
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		return fmt.Errorf("blob driver s3 requires %s", EnvBlobS3Bucket)
	}
	if c.Connectivity.Interval <= 0 {
		return fmt.Errorf("connectivity interval must be positive")
	}
	if c.Connectivity.Timeout <= 0 {
		return fmt.Errorf("connectivity timeout must be positive")
	}
	return nil
}
