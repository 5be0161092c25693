package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8000},
		Database: DatabaseConfig{URL: "postgres://localhost/console"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Auth:     AuthConfig{PublicKey: []byte("pem")},
		Gateway:  GatewayConfig{Mode: GatewayModeHTTP, BaseURL: "http://keycloak:8080"},
		Audit:    AuditConfig{BufferSize: 10, BatchSize: 5},
		Logger:   LoggerConfig{Level: "info", Format: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	noURL := validConfig()
	noURL.Gateway.BaseURL = ""
	assert.ErrorContains(t, noURL.Validate(), "base_url")

	memory := validConfig()
	memory.Gateway = GatewayConfig{Mode: GatewayModeMemory}
	assert.NoError(t, memory.Validate())

	badMode := validConfig()
	badMode.Gateway.Mode = "ldap"
	assert.ErrorContains(t, badMode.Validate(), "Mode")

	noKey := validConfig()
	noKey.Auth.PublicKey = nil
	assert.ErrorContains(t, noKey.Validate(), "public key")

	badLevel := validConfig()
	badLevel.Logger.Level = "trace"
	assert.Error(t, badLevel.Validate())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = NewLogger(LoggerConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
