package config

import (
	"encoding/json"
	"os"

	"github.com/snoofz/snofbase/internal/flagx"
	"github.com/snoofz/snofbase/internal/timex"
)

// JsonConfig is the intermediate DTO for reading a JSON configuration file.
// Interval fields use timex.Duration, which accepts both "10m" style strings
// and integer nanoseconds; after unmarshalling the values are copied into
// the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP     string         `json:"endpoint_addr_http"`
	DatabaseFile         string         `json:"database_file"`
	PublicDir            string         `json:"public_dir"`
	SessionSecret        string         `json:"session_secret"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	VerificationWindow   timex.Duration `json:"verification_window"`
	ResetTokenTTL        timex.Duration `json:"reset_token_ttl"`
	PendingSweepInterval timex.Duration `json:"pending_sweep_interval"`
	BcryptCost           int            `json:"bcrypt_cost"`
	SMTPHost             string         `json:"smtp_host"`
	SMTPPort             int            `json:"smtp_port"`
	SMTPUsername         string         `json:"smtp_username"`
	SMTPPassword         string         `json:"smtp_password"`
	MailFrom             string         `json:"mail_from"`
	AvatarEndpoint       string         `json:"avatar_endpoint"`
	ChatBacklogLimit     int            `json:"chat_backlog_limit"`
}

// parseJson overlays configuration from the JSON file named by the -c or
// -config flags. If neither flag is set, nothing is loaded. An unreadable or
// invalid file panics: a config the operator pointed at explicitly must not
// be half-applied.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseFile != "" {
		config.DatabaseFile = c.DatabaseFile
	}
	if c.PublicDir != "" {
		config.PublicDir = c.PublicDir
	}
	if c.SessionSecret != "" {
		config.SessionSecret = c.SessionSecret
	}
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.VerificationWindow.Duration != 0 {
		config.VerificationWindow = c.VerificationWindow.Duration
	}
	if c.ResetTokenTTL.Duration != 0 {
		config.ResetTokenTTL = c.ResetTokenTTL.Duration
	}
	if c.PendingSweepInterval.Duration != 0 {
		config.PendingSweepInterval = c.PendingSweepInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.SMTPHost != "" {
		config.SMTPHost = c.SMTPHost
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.SMTPUsername != "" {
		config.SMTPUsername = c.SMTPUsername
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	if c.MailFrom != "" {
		config.MailFrom = c.MailFrom
	}
	if c.AvatarEndpoint != "" {
		config.AvatarEndpoint = c.AvatarEndpoint
	}
	if c.ChatBacklogLimit != 0 {
		config.ChatBacklogLimit = c.ChatBacklogLimit
	}
}
