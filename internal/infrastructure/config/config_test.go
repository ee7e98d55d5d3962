package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"STEEL_APP_NAME":               os.Getenv("STEEL_APP_NAME"),
		"STEEL_APP_ENV":                os.Getenv("STEEL_APP_ENV"),
		"STEEL_APP_PORT":               os.Getenv("STEEL_APP_PORT"),
		"STEEL_LEDGER_BASE_URL":        os.Getenv("STEEL_LEDGER_BASE_URL"),
		"STEEL_LEDGER_REQUEST_TIMEOUT": os.Getenv("STEEL_LEDGER_REQUEST_TIMEOUT"),
		"STEEL_DATABASE_HOST":          os.Getenv("STEEL_DATABASE_HOST"),
		"STEEL_DATABASE_PASSWORD":      os.Getenv("STEEL_DATABASE_PASSWORD"),
		"STEEL_DATABASE_SSLMODE":       os.Getenv("STEEL_DATABASE_SSLMODE"),
		"STEEL_REDIS_ENABLED":          os.Getenv("STEEL_REDIS_ENABLED"),
		"STEEL_STOCK_LOW_STOCK_RATIO":  os.Getenv("STEEL_STOCK_LOW_STOCK_RATIO"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "steelerp-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "http://localhost:9090", cfg.Ledger.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.Ledger.RequestTimeout)
		assert.Equal(t, 8, cfg.Ledger.MaxConcurrency)
		assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.InDelta(t, 0.1, cfg.Stock.LowStockRatio, 1e-9)
	})

	t.Run("loads values from environment variables with STEEL prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("STEEL_APP_NAME", "test-app")
		os.Setenv("STEEL_APP_PORT", "9000")
		os.Setenv("STEEL_LEDGER_BASE_URL", "http://ledger.internal:8000")
		os.Setenv("STEEL_LEDGER_REQUEST_TIMEOUT", "3s")
		os.Setenv("STEEL_DATABASE_HOST", "testdb.local")
		os.Setenv("STEEL_STOCK_LOW_STOCK_RATIO", "0.25")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "http://ledger.internal:8000", cfg.Ledger.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.Ledger.RequestTimeout)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.InDelta(t, 0.25, cfg.Stock.LowStockRatio, 1e-9)
	})

	t.Run("production requires database password and ssl", func(t *testing.T) {
		clearEnv()
		os.Setenv("STEEL_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")

		os.Setenv("STEEL_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")

		os.Setenv("STEEL_DATABASE_SSLMODE", "require")
		_, err = Load()
		assert.NoError(t, err)
	})

	t.Run("rejects out-of-range low stock ratio", func(t *testing.T) {
		clearEnv()
		os.Setenv("STEEL_STOCK_LOW_STOCK_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "low_stock_ratio")
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "steel",
		Password: "p@ss/word",
		DBName:   "steelerp",
		SSLMode:  "require",
	}

	dsn := d.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.local:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", r.Addr())
}
