package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "SHUTDOWN_TIMEOUT_SECONDS", "REDIS_DB", "CORS_ALLOW_ORIGINS", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Len(t, cfg.CORSAllowOrigins, 2)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://shop.example.com, ,https://admin.example.com")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowOrigins)
}

func TestFromEnv_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "soon")
	t.Setenv("REDIS_DB", "x")

	cfg := FromEnv()

	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0, cfg.RedisDB)
}
