package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"POS_APP_NAME",
	"POS_APP_ENV",
	"POS_APP_PORT",
	"POS_DATABASE_HOST",
	"POS_DATABASE_PORT",
	"POS_DATABASE_PASSWORD",
	"POS_DATABASE_SCHEMA",
	"POS_DATABASE_MAX_OPEN_CONNS",
	"POS_DATABASE_MAX_IDLE_CONNS",
	"POS_CATALOG_CACHE_TTL",
	"POS_LEDGER_BOUND_PAYMENTS_TO_BALANCE",
	"POS_STORAGE_TYPE",
	"POS_STORAGE_S3_BUCKET",
	"POS_PRINTING_FORMAT",
	"POS_AUTH_ENABLED",
	"POS_AUTH_JWT_SECRET",
	"POS_AUTH_PIN_HASH",
	"POS_TELEMETRY_SAMPLING_RATIO",
	"POS_TELEMETRY_METRICS_ENABLED",
	"POS_TELEMETRY_METRICS_INTERVAL",
}

// withCleanEnv clears every POS_ variable the tests touch and restores them afterwards
func withCleanEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(configEnvKeys))
	for _, k := range configEnvKeys {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		withCleanEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "anchala-pos", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pos", cfg.Database.DBName)
		assert.Equal(t, "public", cfg.Database.Schema)
		assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
		assert.Equal(t, "purchase_audit", cfg.Catalog.SourceTable)
		assert.Equal(t, 2*time.Hour, cfg.Cart.IdleTimeout)
		assert.True(t, cfg.Ledger.BoundPaymentsToBalance)
		assert.True(t, cfg.Ledger.ValidateReturnQuantity)
		assert.False(t, cfg.Checkout.RequirePayment)
		assert.Equal(t, "pdf", cfg.Printing.Format)
		assert.Equal(t, "Anchala", cfg.Printing.ShopName)
		assert.Equal(t, "local", cfg.Storage.Type)
		assert.False(t, cfg.Auth.Enabled)
		assert.False(t, cfg.Redis.Enabled)
		assert.True(t, cfg.Telemetry.MetricsEnabled)
		assert.Equal(t, time.Minute, cfg.Telemetry.MetricsInterval)
		assert.False(t, cfg.Telemetry.LogsEnabled)
	})

	t.Run("loads values from environment variables with POS prefix", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_APP_PORT", "9000")
		os.Setenv("POS_DATABASE_HOST", "till-db.local")
		os.Setenv("POS_DATABASE_PORT", "5433")
		os.Setenv("POS_DATABASE_SCHEMA", "mainDB")
		os.Setenv("POS_CATALOG_CACHE_TTL", "90s")
		os.Setenv("POS_LEDGER_BOUND_PAYMENTS_TO_BALANCE", "false")
		os.Setenv("POS_PRINTING_FORMAT", "html")
		os.Setenv("POS_TELEMETRY_METRICS_ENABLED", "false")
		os.Setenv("POS_TELEMETRY_METRICS_INTERVAL", "15s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "till-db.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "mainDB", cfg.Database.Schema)
		assert.Equal(t, 90*time.Second, cfg.Catalog.CacheTTL)
		assert.False(t, cfg.Ledger.BoundPaymentsToBalance)
		assert.Equal(t, "html", cfg.Printing.Format)
		assert.False(t, cfg.Telemetry.MetricsEnabled)
		assert.Equal(t, 15*time.Second, cfg.Telemetry.MetricsInterval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_DATABASE_MAX_OPEN_CONNS", "5")
		os.Setenv("POS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown storage type", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_STORAGE_TYPE", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.type")
	})

	t.Run("s3 storage requires a bucket", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_STORAGE_TYPE", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.s3.bucket")

		os.Setenv("POS_STORAGE_S3_BUCKET", "invoices")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "invoices", cfg.Storage.S3.Bucket)
	})

	t.Run("rejects unknown invoice format", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_PRINTING_FORMAT", "docx")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "printing.format")
	})

	t.Run("auth needs secret and pin hash", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_AUTH_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.jwt_secret")
	})

	t.Run("validates sampling ratio", func(t *testing.T) {
		withCleanEnv(t)
		os.Setenv("POS_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("POS_APP_ENV", "production")
		os.Setenv("POS_AUTH_ENABLED", "true")
		os.Setenv("POS_AUTH_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("POS_AUTH_PIN_HASH", "$2a$10$abcdefghijklmnopqrstuu")
		os.Setenv("POS_DATABASE_PASSWORD", "secure-password")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("requires auth in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("POS_AUTH_ENABLED", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.enabled must be true in production")
	})

	t.Run("requires long jwt secret in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Setenv("POS_AUTH_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		withCleanEnv(t)
		setValidProductionBase()
		os.Unsetenv("POS_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "till",
			Password: "secret",
			DBName:   "pos",
			SSLMode:  "disable",
			Schema:   "public",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "till")
		assert.Contains(t, dsn, "sslmode=disable")
		assert.NotContains(t, dsn, "search_path")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("adds trust anchor and schema", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:        "db",
			Port:        5432,
			User:        "u",
			DBName:      "pos",
			SSLMode:     "verify-full",
			SSLRootCert: "/etc/ssl/pos-ca.pem",
			Schema:      "mainDB",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "sslrootcert=%2Fetc%2Fssl%2Fpos-ca.pem")
		assert.Contains(t, dsn, "search_path=mainDB")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
