package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 4000*time.Second, cfg.SessionTTL)
	assert.False(t, cfg.IsPostgres())
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.MailReplyTo)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/utnode")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.True(t, cfg.IsPostgres())
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestSessionKeyBytes_RandomInDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	a, err := cfg.SessionKeyBytes()
	require.NoError(t, err)
	b, err := cfg.SessionKeyBytes()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestSessionKeyBytes_RequiredInProduction(t *testing.T) {
	cfg := &Config{AppEnv: "production"}
	_, err := cfg.SessionKeyBytes()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_KEY")
}

func TestCSRFKeyBytes_RejectsWrongLength(t *testing.T) {
	cfg := &Config{CSRFKey: strings.Repeat("ab", 40)}
	_, err := cfg.CSRFKeyBytes()
	require.Error(t, err)

	cfg.CSRFKey = strings.Repeat("ab", 32)
	key, err := cfg.CSRFKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestCSRFKeyBytes_RejectsNonHex(t *testing.T) {
	cfg := &Config{CSRFKey: "not-hex"}
	_, err := cfg.CSRFKeyBytes()
	assert.Error(t, err)
}
