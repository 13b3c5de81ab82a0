package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg := fromViper(newTestViper(nil))

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 20, cfg.Registration.Countdown)
	assert.Equal(t, 30*time.Minute, cfg.Registration.SessionTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperBackendFallback(t *testing.T) {
	cfg := fromViper(newTestViper(map[string]interface{}{
		"NEXT_PUBLIC_API_BASE_URL": "https://api.example.org/",
	}))
	assert.Equal(t, "https://api.example.org", cfg.Backend.BaseURL)

	cfg = fromViper(newTestViper(map[string]interface{}{
		"NEXT_PUBLIC_API_BASE_URL": "https://legacy.example.org",
		"API_BASE_URL":             "https://primary.example.org",
	}))
	assert.Equal(t, "https://primary.example.org", cfg.Backend.BaseURL)
}

func TestFromViperOverrides(t *testing.T) {
	cfg := fromViper(newTestViper(map[string]interface{}{
		"REGISTRATION_COUNTDOWN": 0,
		"BACKEND_TIMEOUT":        "not-a-duration",
		"ALLOWED_ORIGINS":        "https://a.example, ,https://b.example",
		"LISTING_CACHE_TTL":      "5m",
	}))
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.Registration.Countdown)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Listing.CacheTTL)
}
