package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 30*time.Second, cfg.Payment.GatewayTimeout)
	assert.Equal(t, 30*time.Second, cfg.Payment.LockTTL)
	assert.Equal(t, "info", cfg.Observability.LogLevel)

	// Sandbox gateway credentials are preconfigured.
	assert.NotEmpty(t, cfg.Gateways.CreditCard.APIKey)
	assert.NotEmpty(t, cfg.Gateways.PayPal.ClientID)
	assert.NotEmpty(t, cfg.Gateways.Stripe.APIKey)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ORDERMGMT_SERVER_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{
				Port:         8080,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
			},
			Database: DatabaseConfig{Host: "localhost", Port: 5432},
			Redis:    RedisConfig{Port: 6379},
			Payment: PaymentConfig{
				GatewayTimeout: 30 * time.Second,
				LockTTL:        30 * time.Second,
			},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read_timeout"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"bad redis port", func(c *Config) { c.Redis.Port = 0 }, "redis.port"},
		{"bad gateway timeout", func(c *Config) { c.Payment.GatewayTimeout = 0 }, "gateway_timeout"},
		{"bad lock ttl", func(c *Config) { c.Payment.LockTTL = -1 }, "lock_ttl"},
		{"short jwt secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "orders", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=orders sslmode=disable", db.DatabaseDSN())

	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}
