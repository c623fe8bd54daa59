package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{old[0]}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestParseJson_NoFlagLoadsNothing(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":3778", c.EndpointAddrHTTP)
}

func TestParseJson_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoint_addr_http": ":8080",
		"database_file": "accounts.snof",
		"verification_window": "5m",
		"reset_token_ttl": "30m",
		"smtp_port": 587
	}`), 0o600))
	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, "accounts.snof", c.DatabaseFile)
	assert.Equal(t, 5*time.Minute, c.VerificationWindow)
	assert.Equal(t, 30*time.Minute, c.ResetTokenTTL)
	assert.Equal(t, 587, c.SMTPPort)

	// untouched keys keep their defaults
	assert.Equal(t, "public", c.PublicDir)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o600))
	withArgs(t, "-config", path)

	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseJson(&c) })
}
