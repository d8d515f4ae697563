package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 5*time.Minute, cfg.HealthCheckInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "usd", cfg.GatewayCurrency)
	assert.Equal(t, 100, cfg.MaxRequestsPerMin)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	prev := AppConfig
	t.Cleanup(func() { AppConfig = prev })

	AppConfig.BusinessTimezone = "Not/AZone"
	assert.Equal(t, time.UTC, Location())

	AppConfig.BusinessTimezone = "America/Chicago"
	assert.Equal(t, "America/Chicago", Location().String())
}
