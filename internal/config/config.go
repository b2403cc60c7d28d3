// Package config handles configuration loading and management
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Connection holds the database connection settings the executor is
// built from.
type Connection struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// Config holds the application configuration.
type Config struct {
	Connection Connection
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Connection: Connection{
			Driver:   getEnv("SENTINEL_DRIVER", "clickhouse"),
			Host:     getEnv("SENTINEL_HOST", "localhost"),
			Username: getEnv("SENTINEL_USERNAME", "default"),
			Password: getEnv("SENTINEL_PASSWORD", ""),
			Database: getEnv("SENTINEL_DATABASE", "default"),
		},
	}

	port, err := strconv.Atoi(getEnv("SENTINEL_PORT", "9000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SENTINEL_PORT: %w", err)
	}
	cfg.Connection.Port = port

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) String() string {
	passwordDisplay := "(not set)"
	if c.Connection.Password != "" {
		passwordDisplay = "********"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Driver:    %s
Host:      %s
Port:      %d
Username:  %s
Password:  %s
Database:  %s`,
		c.Connection.Driver,
		c.Connection.Host,
		c.Connection.Port,
		c.Connection.Username,
		passwordDisplay,
		c.Connection.Database,
	)
}
