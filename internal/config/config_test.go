package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Recorder.MaxEntries != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d, want %d", cfg.Recorder.MaxEntries, DefaultMaxEntries)
	}
	if cfg.Export.Type != "file" || cfg.Export.Dir != DefaultExportDir {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestParse(t *testing.T) {
	data := `
recorder:
  max_entries: 500
  record_queries: true
export:
  type: redis
  redis:
    addr: localhost:6379
    key: audit:exports
    max_len: 10
auto_export:
  enabled: true
  every: 25
  interval: 5m
sync:
  enabled: true
  interval: 10s
  scenario: ./scenario.yaml
server:
  addr: :9090
  signing_key: secret
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Recorder.MaxEntries != 500 || !cfg.Recorder.RecordQueries {
		t.Errorf("Recorder = %+v", cfg.Recorder)
	}
	if cfg.Export.Type != "redis" || cfg.Export.Redis == nil || cfg.Export.Redis.Addr != "localhost:6379" {
		t.Errorf("Export = %+v", cfg.Export)
	}
	if cfg.Export.Redis.MaxLen != 10 || cfg.Export.Redis.Key != "audit:exports" {
		t.Errorf("Export.Redis = %+v", cfg.Export.Redis)
	}
	if !cfg.AutoExport.Enabled || cfg.AutoExport.Every != 25 || cfg.AutoExport.Interval != 5*time.Minute {
		t.Errorf("AutoExport = %+v", cfg.AutoExport)
	}
	if !cfg.Sync.Enabled || cfg.Sync.Interval != 10*time.Second || cfg.Sync.Scenario != "./scenario.yaml" {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.SigningKey != "secret" {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "negative max entries", data: "recorder:\n  max_entries: -1\n", wantErr: "max_entries"},
		{name: "unknown export type", data: "export:\n  type: s3\n", wantErr: "unknown export type"},
		{name: "jsonl without path", data: "export:\n  type: jsonl\n", wantErr: "path is required"},
		{name: "redis without addr", data: "export:\n  type: redis\n", wantErr: "redis.addr is required"},
		{name: "negative every", data: "auto_export:\n  every: -5\n", wantErr: "auto_export.every"},
		{name: "negative sync interval", data: "sync:\n  interval: -1s\n", wantErr: "sync.interval"},
		{name: "malformed yaml", data: "recorder: [", wantErr: "parsing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "privaudit.yaml")
	if err := os.WriteFile(path, []byte("export:\n  type: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Export.Type != "memory" || cfg.Export.Dir != "" {
		t.Errorf("Export = %+v", cfg.Export)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
