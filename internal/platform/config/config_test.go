package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"STORAGE_BACKEND": "memory"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, LockLocal, cfg.LockBackend)
	assert.Equal(t, 10*time.Second, cfg.LockExpiry)
	assert.Equal(t, 5*time.Second, cfg.LockWaitTimeout)
	assert.Equal(t, 25*time.Millisecond, cfg.AppendRetryInitialInterval)
	assert.Equal(t, uint(3), cfg.AppendRetryMaxTries)
	assert.True(t, decimal.RequireFromString("0.4").Equal(cfg.AdvisorWeightSalesCount))
	assert.Equal(t, 50, cfg.AdvisorFullLoadSales)
	assert.Equal(t, 100, cfg.AuditHighActivitySales)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.NeedsRedis())
}

func TestFromViper_Validation(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{"postgres without url", map[string]any{}, "PGSQL_URL"},
		{"unknown storage", map[string]any{"STORAGE_BACKEND": "sqlite"}, "STORAGE_BACKEND"},
		{"redis lock without url", map[string]any{"STORAGE_BACKEND": "memory", "LOCK_BACKEND": "redis"}, "REDIS_URL"},
		{"bad duration", map[string]any{"STORAGE_BACKEND": "memory", "LOCK_EXPIRY": "soon"}, "LOCK_EXPIRY"},
		{"bad weight", map[string]any{"STORAGE_BACKEND": "memory", "ADVISOR_WEIGHT_BALANCE": "heavy"}, "ADVISOR_WEIGHT_BALANCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newViper(tt.overrides))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromViper_Redis(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"STORAGE_BACKEND":       "memory",
		"REDIS_URL":             "redis://localhost:6379/0",
		"LOCK_BACKEND":          "REDIS",
		"BALANCE_CACHE_ENABLED": true,
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, LockRedis, cfg.LockBackend)
	assert.True(t, cfg.NeedsRedis())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestFromViper_CacheWithoutRedisIsDisabled(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"STORAGE_BACKEND": "memory", "BALANCE_CACHE_ENABLED": true}))
	require.NoError(t, err)
	assert.False(t, cfg.BalanceCacheEnabled)
}

func TestLoadJWTSecret_IgnoresStorageSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("STORAGE_BACKEND", "bogus")

	assert.Equal(t, "from-env", LoadJWTSecret())
}

func TestFromViper_LockWaitTimeoutIsIndependent(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"STORAGE_BACKEND":   "memory",
		"LOCK_EXPIRY":       "30s",
		"LOCK_WAIT_TIMEOUT": "250ms",
	}))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.LockExpiry)
	assert.Equal(t, 250*time.Millisecond, cfg.LockWaitTimeout)

	_, err = fromViper(newViper(map[string]any{"STORAGE_BACKEND": "memory", "LOCK_WAIT_TIMEOUT": "soon"}))
	assert.Error(t, err)
}
