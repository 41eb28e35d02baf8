package config

import (
	"os"
	"strconv"
	"time"

	"lineupremote/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Table    TableConfig
	Stats    StatsConfig
	Seed     SeedConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	QueryTimeout time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	MetricsEnabled bool
}

// TableConfig names the served table. CatalogFile, when set, replaces the
// built-in column catalog.
type TableConfig struct {
	Name        string
	IDColumn    string
	CatalogFile string
}

// StatsConfig holds statistics settings
type StatsConfig struct {
	MappingSampleSize int
}

// SeedConfig holds demo data settings
type SeedConfig struct {
	Rows int
	File string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	config.Server = ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		MetricsEnabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
	}
	config.Table = TableConfig{
		Name:        getEnvOrDefault("TABLE_NAME", "rows"),
		IDColumn:    getEnvOrDefault("ID_COLUMN", "id"),
		CatalogFile: getEnvOrDefault("CATALOG_FILE", ""),
	}
	config.Stats = StatsConfig{
		MappingSampleSize: getEnvIntOrDefault("MAPPING_SAMPLE_SIZE", 100),
	}
	config.Seed = SeedConfig{
		Rows: getEnvIntOrDefault("SEED_ROWS", 1000),
		File: getEnvOrDefault("SEED_FILE", ""),
	}
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:          url,
		QueryTimeout: getEnvDurationOrDefault("QUERY_TIMEOUT", 0),
	}, nil
}

func validateConfig(config *Config) error {
	if config.Database.QueryTimeout < 0 {
		return errors.ConfigInvalid("QUERY_TIMEOUT must not be negative")
	}
	if config.Stats.MappingSampleSize <= 0 {
		return errors.ConfigInvalid("MAPPING_SAMPLE_SIZE must be positive")
	}
	if config.Seed.Rows < 0 {
		return errors.ConfigInvalid("SEED_ROWS must not be negative")
	}
	if config.Table.Name == "" || config.Table.IDColumn == "" {
		return errors.ConfigInvalid("TABLE_NAME and ID_COLUMN must not be empty")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
