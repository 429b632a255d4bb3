package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StorageBackend string
	JWTSecret      string

	RedisURL        string
	LockBackend     string
	LockExpiry      time.Duration // TTL of a redis lock
	LockWaitTimeout time.Duration // how long the local locker waits to acquire
	LockTries       int
	LockRetryDelay  time.Duration

	BalanceCacheEnabled bool
	BalanceCacheTTL     time.Duration

	AdvisorWeightSalesCount  decimal.Decimal
	AdvisorWeightSalesAmount decimal.Decimal
	AdvisorWeightBalance     decimal.Decimal
	AdvisorNormalization     decimal.Decimal
	AdvisorFullLoadSales     int

	AuditHighActivitySales int

	AppendRetryMaxTries        uint
	AppendRetryInitialInterval time.Duration

	RateLimit          string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

// LoadJWTSecret reads only the token signing secret, for tools that do not need the rest
// of the configuration to be valid.
func LoadJWTSecret() string {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v.GetString("JWT_SECRET")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORAGE_BACKEND", StoragePostgres)
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOCK_BACKEND", LockLocal)
	v.SetDefault("LOCK_EXPIRY", "10s")
	v.SetDefault("LOCK_WAIT_TIMEOUT", "5s")
	v.SetDefault("LOCK_TRIES", 32)
	v.SetDefault("LOCK_RETRY_DELAY", "50ms")
	v.SetDefault("BALANCE_CACHE_ENABLED", false)
	v.SetDefault("BALANCE_CACHE_TTL", "10m")
	v.SetDefault("ADVISOR_WEIGHT_SALES_COUNT", "0.4")
	v.SetDefault("ADVISOR_WEIGHT_SALES_AMOUNT", "0.3")
	v.SetDefault("ADVISOR_WEIGHT_BALANCE", "0.3")
	v.SetDefault("ADVISOR_NORMALIZATION", "1000000")
	v.SetDefault("ADVISOR_FULL_LOAD_SALES", 50)
	v.SetDefault("AUDIT_HIGH_ACTIVITY_SALES", 100)
	v.SetDefault("APPEND_RETRY_MAX_TRIES", 3)
	v.SetDefault("APPEND_RETRY_INITIAL_INTERVAL", "25ms")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:            v.GetString("PGSQL_URL"),
		Port:                   v.GetString("PORT"),
		IsProduction:           v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:          v.GetBool("ENABLE_DB_CHECK"),
		StorageBackend:         strings.ToLower(v.GetString("STORAGE_BACKEND")),
		JWTSecret:              v.GetString("JWT_SECRET"),
		RedisURL:               v.GetString("REDIS_URL"),
		LockBackend:            strings.ToLower(v.GetString("LOCK_BACKEND")),
		LockTries:              v.GetInt("LOCK_TRIES"),
		BalanceCacheEnabled:    v.GetBool("BALANCE_CACHE_ENABLED"),
		AdvisorFullLoadSales:   v.GetInt("ADVISOR_FULL_LOAD_SALES"),
		AuditHighActivitySales: v.GetInt("AUDIT_HIGH_ACTIVITY_SALES"),
		AppendRetryMaxTries:    v.GetUint("APPEND_RETRY_MAX_TRIES"),
		RateLimit:              v.GetString("RATE_LIMIT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	var err error
	if cfg.LockExpiry, err = duration(v, "LOCK_EXPIRY"); err != nil {
		return nil, err
	}
	if cfg.LockWaitTimeout, err = duration(v, "LOCK_WAIT_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.LockRetryDelay, err = duration(v, "LOCK_RETRY_DELAY"); err != nil {
		return nil, err
	}
	if cfg.BalanceCacheTTL, err = duration(v, "BALANCE_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.AppendRetryInitialInterval, err = duration(v, "APPEND_RETRY_INITIAL_INTERVAL"); err != nil {
		return nil, err
	}

	if cfg.AdvisorWeightSalesCount, err = dec(v, "ADVISOR_WEIGHT_SALES_COUNT"); err != nil {
		return nil, err
	}
	if cfg.AdvisorWeightSalesAmount, err = dec(v, "ADVISOR_WEIGHT_SALES_AMOUNT"); err != nil {
		return nil, err
	}
	if cfg.AdvisorWeightBalance, err = dec(v, "ADVISOR_WEIGHT_BALANCE"); err != nil {
		return nil, err
	}
	if cfg.AdvisorNormalization, err = dec(v, "ADVISOR_NORMALIZATION"); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	switch cfg.StorageBackend {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_BACKEND is %q", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	switch cfg.LockBackend {
	case LockLocal:
	case LockRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when LOCK_BACKEND is %q", LockRedis)
		}
	default:
		return nil, fmt.Errorf("unknown LOCK_BACKEND %q", cfg.LockBackend)
	}

	if cfg.BalanceCacheEnabled && cfg.RedisURL == "" {
		log.Println("Warning: BALANCE_CACHE_ENABLED is set but REDIS_URL is empty. Balance cache disabled.")
		cfg.BalanceCacheEnabled = false
	}
	if cfg.AppendRetryMaxTries == 0 {
		cfg.AppendRetryMaxTries = 1
	}
	if cfg.IsProduction && cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	return cfg, nil
}

// NeedsRedis reports whether any component is configured to use redis.
func (c *Config) NeedsRedis() bool {
	return c.RedisURL != "" && (c.LockBackend == LockRedis || c.BalanceCacheEnabled)
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}

func dec(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}
