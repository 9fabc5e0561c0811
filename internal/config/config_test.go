package config

import (
	"log/slog"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "STORAGE", "DB_PATH", "BLOB_DB_PATH", "MAX_PHOTO_MB", "MAX_PROFILE_PHOTO_MB", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.Storage.Kind != StorageSQLite || cfg.Storage.DBPath == cfg.Storage.BlobDBPath {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Uploads.MaxPhotoBytes != 8<<20 || cfg.Uploads.MaxProfilePhotoBytes != 5<<20 {
		t.Errorf("uploads = %+v", cfg.Uploads)
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Errorf("level = %v", cfg.Log.Level)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("MAX_PHOTO_MB", "2")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != ":9000" || cfg.Storage.Kind != StorageMemory {
		t.Errorf("cfg = %s", cfg)
	}
	if cfg.Uploads.MaxPhotoBytes != 2<<20 {
		t.Errorf("MaxPhotoBytes = %d", cfg.Uploads.MaxPhotoBytes)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("level = %v", cfg.Log.Level)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad integer", "MAX_PHOTO_MB", "eight"},
		{"zero limit", "MAX_PROFILE_PHOTO_MB", "0"},
		{"unknown storage", "STORAGE", "redis"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"same files", "BLOB_DB_PATH", "telekolekting.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
