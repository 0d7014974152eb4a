// Package config provides application configuration management from environment variables.
package config

import "os"

// Config holds application configuration
type Config struct {
	// DatabaseURL is the relational connection string. Empty means the
	// relational backend is not configured and selection falls through.
	DatabaseURL    string
	DatabaseDriver string

	// MongoURI and MongoDBName describe the document-oriented backend.
	MongoURI    string
	MongoDBName string

	APIPort  string
	APIHost  string
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "pgx"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "docvault"),
		APIPort:        getEnv("API_PORT", "8080"),
		APIHost:        getEnv("API_HOST", "0.0.0.0"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
