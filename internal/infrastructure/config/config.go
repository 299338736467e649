package config

import (
	"fmt"
	"os"
)

const (
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
)

type Config struct {
	ServerHost      string
	ServerPort      string
	DBDriver        string
	DBDSN           string
	QuoteServiceURL string
	LogLevel        string
}

// Load reads configuration from the environment. DB_DSN is the only
// required variable; everything else has a sensible default.
func Load() (*Config, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN environment variable is required")
	}

	driver := getEnvOrDefault("DB_DRIVER", DriverPostgres)
	if driver != DriverPostgres && driver != DriverOracle {
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}

	return &Config{
		ServerHost:      getEnvOrDefault("SERVER_HOST", "localhost"),
		ServerPort:      getEnvOrDefault("SERVER_PORT", "8080"),
		DBDriver:        driver,
		DBDSN:           dsn,
		QuoteServiceURL: getEnvOrDefault("QUOTE_SERVICE_URL", ""),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
