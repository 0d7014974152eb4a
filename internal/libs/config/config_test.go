package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Test with default values
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.APIPort != "8080" {
		t.Errorf("expected default APIPort=8080, got %s", cfg.APIPort)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel=info, got %s", cfg.LogLevel)
	}

	if cfg.DatabaseDriver != "pgx" {
		t.Errorf("expected default DatabaseDriver=pgx, got %s", cfg.DatabaseDriver)
	}

	if cfg.MongoDBName != "docvault" {
		t.Errorf("expected default MongoDBName=docvault, got %s", cfg.MongoDBName)
	}

	// Connection strings have no defaults: absence drives engine selection.
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty DatabaseURL, got %s", cfg.DatabaseURL)
	}
	if cfg.MongoURI != "" {
		t.Errorf("expected empty MongoURI, got %s", cfg.MongoURI)
	}
}

func TestLoadWithEnv(t *testing.T) {
	// Test with environment variables
	_ = os.Setenv("DATABASE_URL", "postgres://localhost/docvault")
	_ = os.Setenv("DATABASE_DRIVER", "sqlite")
	_ = os.Setenv("MONGO_URI", "mongodb://localhost:27017")
	_ = os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		_ = os.Unsetenv("DATABASE_URL")
		_ = os.Unsetenv("DATABASE_DRIVER")
		_ = os.Unsetenv("MONGO_URI")
		_ = os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost/docvault" {
		t.Errorf("expected DatabaseURL override, got %s", cfg.DatabaseURL)
	}

	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("expected DatabaseDriver=sqlite, got %s", cfg.DatabaseDriver)
	}

	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("expected MongoURI override, got %s", cfg.MongoURI)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %s", cfg.LogLevel)
	}
}
