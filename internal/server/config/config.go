// Package config handles configuration for the account server, including
// defaults, .env and JSON overlays, and command-line flags.
package config

import "time"

// Config holds runtime settings for the snofbase server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - DatabaseFile: path of the .snof record file the store owns.
//   - PublicDir: directory of static pages served at the root.
//   - SessionSecret: HMAC secret for signing session JWTs (HS256).
//   - SessionTTL: session cookie lifetime.
//   - VerificationWindow: how long a mailed verification code stays valid.
//   - ResetTokenTTL: password-reset token lifetime.
//   - PendingSweepInterval: how often expired pending registrations are swept.
//   - BcryptCost: bcrypt work factor; 0 picks the library default.
//   - SMTPHost/SMTPPort/SMTPUsername/SMTPPassword/MailFrom: outbound mail.
//   - AvatarEndpoint: Gravatar-compatible base URL; empty disables avatars.
//   - ChatBacklogLimit: maximum chat messages kept in memory.
type Config struct {
	EndpointAddrHTTP     string
	DatabaseFile         string
	PublicDir            string
	SessionSecret        string
	SessionTTL           time.Duration
	VerificationWindow   time.Duration
	ResetTokenTTL        time.Duration
	PendingSweepInterval time.Duration
	BcryptCost           int
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	MailFrom             string
	AvatarEndpoint       string
	ChatBacklogLimit     int
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3778"
	c.DatabaseFile = "users.database.snof"
	c.PublicDir = "public"
	c.SessionSecret = "secretKey"
	c.SessionTTL = 24 * time.Hour
	c.VerificationWindow = 10 * time.Minute
	c.ResetTokenTTL = 1 * time.Hour
	c.PendingSweepInterval = 1 * time.Minute
	c.BcryptCost = 0
	c.SMTPHost = "localhost"
	c.SMTPPort = 25
	c.MailFrom = "accounts@localhost"
	c.AvatarEndpoint = "https://www.gravatar.com/avatar"
	c.ChatBacklogLimit = 200
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (including an optional .env file), an optional JSON
// file, and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
