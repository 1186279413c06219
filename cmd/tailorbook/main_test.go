package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"tailorbook/internal/config"
	"tailorbook/internal/core"
	"tailorbook/pkg/domain"
)

func useConfig(t *testing.T, cfg config.Config) {
	t.Helper()
	prev := loadConfig
	loadConfig = func() (config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = prev })
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.SQLitePath = filepath.Join(dir, "tailorbook.db")
	cfg.Blob.FSRoot = filepath.Join(dir, "blobs")
	cfg.Log.Level = "error"
	return cfg
}

func TestCLIUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "usage: tailorbook") {
		t.Fatalf("expected usage, got %q", stderr.String())
	}
	useConfig(t, sqliteConfig(t))
	stderr.Reset()
	if code := cli([]string{"frobnicate"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for unknown command, got %d", code)
	}
	if code := cli([]string{"stats", "-bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for bad flag, got %d", code)
	}
}

func TestCLICustomerBackupRestore(t *testing.T) {
	useConfig(t, sqliteConfig(t))
	var stdout, stderr bytes.Buffer

	if code := cli([]string{"add-customer", "-name", "Ramesh", "-mobile", "9876543210"}, &stdout, &stderr); code != 0 {
		t.Fatalf("add-customer exit %d: %s", code, stderr.String())
	}
	var created domain.Customer
	if err := json.Unmarshal(stdout.Bytes(), &created); err != nil || created.Tag != domain.TagRegular {
		t.Fatalf("unexpected customer output %q: %v", stdout.String(), err)
	}

	stdout.Reset()
	if code := cli([]string{"add-customer", "-name", "Dup", "-mobile", "9876543210"}, &stdout, &stderr); code != 1 {
		t.Fatalf("duplicate mobile should fail, got %d", code)
	}

	stdout.Reset()
	if code := cli([]string{"backup"}, &stdout, &stderr); code != 0 {
		t.Fatalf("backup exit %d: %s", code, stderr.String())
	}
	key := strings.TrimSpace(stdout.String())
	if !strings.HasPrefix(key, core.BackupPrefix) {
		t.Fatalf("unexpected backup key %q", key)
	}

	stdout.Reset()
	if code := cli([]string{"list-backups"}, &stdout, &stderr); code != 0 || !strings.Contains(stdout.String(), key) {
		t.Fatalf("list-backups exit %d output %q", code, stdout.String())
	}

	stdout.Reset()
	if code := cli([]string{"search", "-q", "rame"}, &stdout, &stderr); code != 0 {
		t.Fatalf("search exit %d", code)
	}
	var found []domain.Customer
	if err := json.Unmarshal(stdout.Bytes(), &found); err != nil || len(found) != 1 {
		t.Fatalf("unexpected search output %q: %v", stdout.String(), err)
	}

	stdout.Reset()
	if code := cli([]string{"restore"}, &stdout, &stderr); code != 1 {
		t.Fatalf("restore without key should fail, got %d", code)
	}
	if code := cli([]string{"restore", "-key", key}, &stdout, &stderr); code != 0 {
		t.Fatalf("restore exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "restored 1 customers") {
		t.Fatalf("unexpected restore output %q", stdout.String())
	}

	stdout.Reset()
	if code := cli([]string{"stats"}, &stdout, &stderr); code != 0 {
		t.Fatalf("stats exit %d", code)
	}
	var stats core.DashboardStats
	if err := json.Unmarshal(stdout.Bytes(), &stats); err != nil || stats.Customers != 1 {
		t.Fatalf("unexpected stats %q: %v", stdout.String(), err)
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("shouting", &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}
