package config

import (
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FromEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("SERVER_PORT", "8280")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("CATALOG_REJECT_OVERLAP", "true")

	config, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8280, config.ServerPort)
	assert.Equal(t, DriverSQLite, config.DatabaseDriver)
	assert.Equal(t, "test.db", config.DatabasePath)
	assert.Equal(t, "vmtracker", config.JWTIssuer)
	assert.Equal(t, "vmtracker-api", config.JWTAudience)
	assert.Equal(t, 120, config.RateLimitPerMinute)
	assert.True(t, config.CatalogRejectOverlap)
	assert.False(t, config.CacheEnabled())
	assert.Equal(t, config, GetConfig())
}

func TestValidateConfig(t *testing.T) {
	log := logger.New("config_test")

	valid := Config{
		ServerPort:     8280,
		JWTSecret:      "secret",
		DatabaseDriver: DriverPostgres,
		DatabaseHost:   "localhost",
		DatabaseName:   "vmtracker",
		DatabaseUser:   "vmtracker",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid postgres config", mutate: func(c *Config) {}},
		{name: "Memory driver needs no host", mutate: func(c *Config) {
			c.DatabaseDriver = DriverMemory
			c.DatabaseHost = ""
		}},
		{name: "Missing port", mutate: func(c *Config) { c.ServerPort = 0 }, wantErr: true},
		{name: "Missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
		{name: "Missing host", mutate: func(c *Config) { c.DatabaseHost = "" }, wantErr: true},
		{name: "Unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "oracle" }, wantErr: true},
		{name: "Sqlite without path", mutate: func(c *Config) {
			c.DatabaseDriver = DriverSQLite
			c.DatabasePath = ""
		}, wantErr: true},
		{name: "Negative rate limit", mutate: func(c *Config) { c.RateLimitBurst = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)

			err := validateConfig(config, log)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_CacheEnabled(t *testing.T) {
	assert.True(t, Config{DatabaseCacheAddress: "localhost", DatabaseCachePort: 6379}.CacheEnabled())
	assert.False(t, Config{DatabaseCacheAddress: "localhost"}.CacheEnabled())
}
