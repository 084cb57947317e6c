package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"GAMEOPS_PORT", "GAMEOPS_BIND_ADDR", "GAMEOPS_JWT_SECRET", "GAMEOPS_TOKEN_TTL",
		"GAMEOPS_ALLOWED_ORIGINS", "GAMEOPS_STEP_DELAY", "GAMEOPS_SEED_FILE", "GAMEOPS_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "7777", cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.StepDelay)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.SeedFile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GAMEOPS_PORT", "9999")
	t.Setenv("GAMEOPS_BIND_ADDR", "0.0.0.0")
	t.Setenv("GAMEOPS_ALLOWED_ORIGINS", "https://ops.example.com, http://localhost:5173,")
	t.Setenv("GAMEOPS_STEP_DELAY", "0s")
	t.Setenv("GAMEOPS_SEED_FILE", "/srv/seed.yaml")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.BindAddr)
	assert.Equal(t, []string{"https://ops.example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Zero(t, cfg.StepDelay)
	assert.Equal(t, "/srv/seed.yaml", cfg.SeedFile)
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("GAMEOPS_STEP_DELAY", "soon")
	t.Setenv("GAMEOPS_TOKEN_TTL", "-1h")

	cfg := Load()

	assert.Equal(t, 300*time.Millisecond, cfg.StepDelay)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
}
