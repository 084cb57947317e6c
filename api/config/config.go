package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	Port           string
	BindAddr       string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	StepDelay      time.Duration // pause between simulated log lines
	StatusInterval time.Duration // websocket status broadcast period
	SeedFile       string        // optional YAML seed, see model.Seed
	LogLevel       string
}

func Load() *Config {
	return &Config{
		Port:           envOr("GAMEOPS_PORT", "7777"),
		BindAddr:       envOr("GAMEOPS_BIND_ADDR", "127.0.0.1"),
		JWTSecret:      envOr("GAMEOPS_JWT_SECRET", "gameops-dev-secret"),
		TokenTTL:       durationOr("GAMEOPS_TOKEN_TTL", 12*time.Hour),
		AllowedOrigins: splitList(os.Getenv("GAMEOPS_ALLOWED_ORIGINS")),
		StepDelay:      durationOr("GAMEOPS_STEP_DELAY", 300*time.Millisecond),
		StatusInterval: durationOr("GAMEOPS_STATUS_INTERVAL", 30*time.Second),
		SeedFile:       os.Getenv("GAMEOPS_SEED_FILE"),
		LogLevel:       envOr("GAMEOPS_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOr falls back on unset or unparsable values.
func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
