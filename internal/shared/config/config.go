package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	LogLevel string

	// EmitLimit caps the number of emissions on the application bus.
	// 0 means unbounded.
	EmitLimit uint64

	// DatabaseURL enables the emission journal when set.
	DatabaseURL string
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// Load loads configuration from the environment, after merging a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine; OS-set variables are used instead.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	bindings := map[string]string{
		"app.env":        "APP_ENV",
		"log.level":      "LOG_LEVEL",
		"bus.emit_limit": "BUS_EMIT_LIMIT",
		"database.url":   "DATABASE_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("bus.emit_limit", "0")

	rawLimit := strings.TrimSpace(v.GetString("bus.emit_limit"))
	limit, err := strconv.ParseUint(rawLimit, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("BUS_EMIT_LIMIT must be a non-negative integer, got %q: %w", rawLimit, err)
	}

	cfg := Config{
		AppEnv:      v.GetString("app.env"),
		LogLevel:    v.GetString("log.level"),
		EmitLimit:   limit,
		DatabaseURL: v.GetString("database.url"),
	}

	return &cfg, nil
}
