package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.EndpointAddrHTTP, ":3778")
	assert.Equal(t, c.DatabaseFile, "users.database.snof")
	assert.Equal(t, c.PublicDir, "public")
	assert.Equal(t, c.SessionSecret, "secretKey")
	assert.Equal(t, c.SessionTTL, 24*time.Hour)
	assert.Equal(t, c.VerificationWindow, 10*time.Minute)
	assert.Equal(t, c.ResetTokenTTL, 1*time.Hour)
	assert.Equal(t, c.PendingSweepInterval, 1*time.Minute)
	assert.Equal(t, c.SMTPHost, "localhost")
	assert.Equal(t, c.SMTPPort, 25)
	assert.Equal(t, c.MailFrom, "accounts@localhost")
	assert.Equal(t, c.AvatarEndpoint, "https://www.gravatar.com/avatar")
	assert.Equal(t, c.ChatBacklogLimit, 200)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, c.EndpointAddrHTTP, ":3778")
	assert.Equal(t, c.VerificationWindow, 10*time.Minute)
	assert.Equal(t, c.ResetTokenTTL, 1*time.Hour)
}

func TestParseEnv_Overlay(t *testing.T) {
	t.Setenv("SNOF_ADDRESS", ":9999")
	t.Setenv("SNOF_SMTP_PORT", "587")
	t.Setenv("SNOF_SESSION_TTL", "2h")
	t.Setenv("SNOF_AVATAR_ENDPOINT", "off")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9999", c.EndpointAddrHTTP)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
	assert.Equal(t, "", c.AvatarEndpoint, `"off" disables avatars`)
}

func TestParseEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("SNOF_SMTP_PORT", "not-a-port")
	t.Setenv("SNOF_SESSION_TTL", "not-a-duration")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, 25, c.SMTPPort)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
}
