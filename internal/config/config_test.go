package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"ENV", "DB_DSN", "STORE", "HTTP_ADDR", "JWT_SECRET", "STRICT_TRANSITIONS",
	"SLOT_BATCH_POLICY", "RECONCILE_INTERVAL", "REDIS_URL", "AVAILABILITY_CACHE_TTL",
	"AMQP_URL", "TELEGRAM_TOKEN", "ZAPI_URL", "ZAPI_INSTANCE_ID", "ZAPI_TOKEN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/office")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.StrictTransitions)
	assert.Equal(t, "best-effort", cfg.SlotBatchPolicy)
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 30*time.Second, cfg.AvailabilityCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("STORE", "memory")
	t.Setenv("STRICT_TRANSITIONS", "false")
	t.Setenv("SLOT_BATCH_POLICY", "atomic")
	t.Setenv("RECONCILE_INTERVAL", "1m")
	t.Setenv("ZAPI_URL", "https://api.z-api.io/instances/X/token/Y")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.False(t, cfg.StrictTransitions)
	assert.Equal(t, "atomic", cfg.SlotBatchPolicy)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, "https://api.z-api.io/instances/X/token/Y", cfg.ZAPIURL)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without dsn", env: map[string]string{"STORE": "postgres"}},
		{name: "unknown store", env: map[string]string{"STORE": "mongo"}},
		{name: "bad bool", env: map[string]string{"STORE": "memory", "STRICT_TRANSITIONS": "maybe"}},
		{name: "bad duration", env: map[string]string{"STORE": "memory", "RECONCILE_INTERVAL": "often"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
