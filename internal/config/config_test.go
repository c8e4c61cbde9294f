package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grader.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Table != "AllCars" {
		t.Errorf("table: got %q", cfg.Database.Table)
	}
	if cfg.Blob.Provider != ProviderS3 {
		t.Errorf("provider: got %q", cfg.Blob.Provider)
	}
	if cfg.Supplements.ResourcePrefix != "ResourceFiles" || cfg.Supplements.FetchConcurrency != 4 {
		t.Errorf("supplements: got %+v", cfg.Supplements)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
database:
  path: /data/cars.db
  table: Vehicles
blob:
  provider: minio
  bucket: files
  endpoint: localhost:9000
  access_key_id: key
  secret_access_key: secret
  secure: false
  timeout: 15s
supplements:
  fetch_concurrency: 8
log:
  level: debug
`)
	cfg, err := Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/data/cars.db" || cfg.Database.Table != "Vehicles" {
		t.Errorf("database: got %+v", cfg.Database)
	}
	if cfg.Blob.Provider != ProviderMinIO || cfg.Blob.Secure {
		t.Errorf("blob: got %+v", cfg.Blob)
	}
	if cfg.Blob.Timeout != 15*time.Second {
		t.Errorf("timeout: got %v", cfg.Blob.Timeout)
	}
	if cfg.Supplements.ResourcePrefix != "ResourceFiles" {
		t.Errorf("unset keys keep defaults, got prefix %q", cfg.Supplements.ResourcePrefix)
	}
	if cfg.Supplements.FetchConcurrency != 8 {
		t.Errorf("concurrency: got %d", cfg.Supplements.FetchConcurrency)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("level: got %v", cfg.LogLevel())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "database:\n  path: /from/file.db\nblob:\n  bucket: file-bucket\n")
	cfg, err := Load(path, envMap(map[string]string{
		"DB_PATH":                  "/from/env.db",
		"R2_BUCKET":                "env-bucket",
		"R2_ENDPOINT":              "https://acct.r2.cloudflarestorage.com",
		"R2_ACCESS_KEY_ID":         "id",
		"R2_SECRET_ACCESS_KEY":     "secret",
		"GRADER_TABLE":             "Cars",
		"GRADER_RESOURCE_PREFIX":   "Files",
		"GRADER_FETCH_CONCURRENCY": "2",
		"GRADER_BLOB_PROVIDER":     "   ",
	}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"db path", cfg.Database.Path, "/from/env.db"},
		{"table", cfg.Database.Table, "Cars"},
		{"bucket", cfg.Blob.Bucket, "env-bucket"},
		{"endpoint", cfg.Blob.Endpoint, "https://acct.r2.cloudflarestorage.com"},
		{"prefix", cfg.Supplements.ResourcePrefix, "Files"},
		{"concurrency", cfg.Supplements.FetchConcurrency, 2},
		{"blank env ignored", cfg.Blob.Provider, ProviderS3},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if err := cfg.ValidateBlob(); err != nil {
		t.Errorf("ValidateBlob: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		env  map[string]string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.yaml"), nil},
		{"unknown key", writeFile(t, "database:\n  pth: /x\n"), nil},
		{"bad yaml", writeFile(t, "database: [\n"), nil},
		{"bad concurrency", "", map[string]string{"GRADER_FETCH_CONCURRENCY": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path, envMap(tt.env)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""), envMap(nil))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Table != "AllCars" {
		t.Errorf("expected defaults, got %+v", cfg.Database)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "database path") {
		t.Errorf("expected database path error, got %v", err)
	}

	cfg.Database.Path = "/data/cars.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Log.Level = "loud"
	cfg.Supplements.FetchConcurrency = 0
	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"log level", "fetch concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateBlob(t *testing.T) {
	cfg := Default()
	cfg.Blob.Provider = "gcs"
	err := cfg.ValidateBlob()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"unknown blob provider", "bucket", "endpoint", "credentials"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
