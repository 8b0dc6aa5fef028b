package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8086", cfg.Server.NotifyPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Auth.DevLogin)
	assert.Equal(t, "http://localhost:8080", cfg.Gateway.MarketplaceURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.UpstreamTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SESSION_RATE_LIMIT", "2.5")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 10, cfg.Database.MaxConns, "invalid ints fall back")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 2.5, cfg.Auth.SessionRateLimit, 0.0001)
}
