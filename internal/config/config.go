package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Storage kinds.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Uploads UploadConfig
	Log     LogConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port string
}

// StorageConfig selects the metadata and blob stores.
type StorageConfig struct {
	Kind       string // "sqlite" or "memory"
	DBPath     string // metadata documents
	BlobDBPath string // mapping photos, kept in a separate file
}

// UploadConfig caps the size of uploaded images, in bytes.
type UploadConfig struct {
	MaxPhotoBytes        int64
	MaxProfilePhotoBytes int64
}

type LogConfig struct {
	Level slog.Level
}

// Addr is the listen address for http.ListenAndServe.
func (c *Config) Addr() string { return ":" + c.Server.Port }

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	maxPhoto, err := getEnvInt("MAX_PHOTO_MB", 8)
	if err != nil {
		return nil, err
	}
	maxProfile, err := getEnvInt("MAX_PROFILE_PHOTO_MB", 5)
	if err != nil {
		return nil, err
	}
	if maxPhoto <= 0 || maxProfile <= 0 {
		return nil, fmt.Errorf("upload limits must be positive")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Storage: StorageConfig{
			Kind:       strings.ToLower(getEnv("STORAGE", StorageSQLite)),
			DBPath:     getEnv("DB_PATH", "telekolekting.db"),
			BlobDBPath: getEnv("BLOB_DB_PATH", "telekolekting_blobs.db"),
		},
		Uploads: UploadConfig{
			MaxPhotoBytes:        int64(maxPhoto) << 20,
			MaxProfilePhotoBytes: int64(maxProfile) << 20,
		},
		Log: LogConfig{Level: level},
	}

	switch cfg.Storage.Kind {
	case StorageSQLite:
		if cfg.Storage.DBPath == cfg.Storage.BlobDBPath {
			return nil, fmt.Errorf("DB_PATH and BLOB_DB_PATH must be different files")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage.Kind)
	}
	return cfg, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, Storage: %s, DB: %s, Blobs: %s, Log: %s}",
		c.Server.Port, c.Storage.Kind, c.Storage.DBPath, c.Storage.BlobDBPath, c.Log.Level)
}
