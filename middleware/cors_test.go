package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg := DefaultCORSConfig()

	assert.Equal(t,
		[]string{"https://app.example.com", "https://staging.example.com"},
		cfg.AllowedOrigins)
}

func TestDefaultCORSOriginsFallback(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := DefaultCORSConfig()

	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}
