// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/warp/attendance-engine/engine"
)

type Config struct {
	Port        int
	DBPath      string
	Environment string
	CORSOrigins []string
	Rounding    engine.RoundingPolicy
}

// Load reads configuration from the environment. A .env file, if present,
// is loaded first; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:        8080,
		DBPath:      "attendance.db",
		Environment: getEnv("ENV", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		Rounding:    engine.DefaultRounding,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	// Punch rounding is a deployment policy, not a constant.
	if v := os.Getenv("ROUNDING_MODE"); v != "" {
		mode := engine.RoundingMode(v)
		switch mode {
		case engine.RoundNone, engine.RoundNearest, engine.RoundFavorEmployee:
			cfg.Rounding.Mode = mode
		default:
			return nil, fmt.Errorf("invalid ROUNDING_MODE %q", v)
		}
	}
	if v := os.Getenv("ROUNDING_INCREMENT"); v != "" {
		inc, err := strconv.Atoi(v)
		if err != nil || inc < 1 {
			return nil, fmt.Errorf("invalid ROUNDING_INCREMENT %q", v)
		}
		cfg.Rounding.IncrementMinutes = inc
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
