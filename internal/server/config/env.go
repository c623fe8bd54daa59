package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, first loading
// an optional .env file from the working directory. A missing .env is not an
// error; already-exported variables take precedence over the file, which is
// godotenv's default behavior.
//
// Recognized variables:
//
//	SNOF_ADDRESS         HTTP bind address
//	SNOF_DATABASE_FILE   record file path
//	SNOF_PUBLIC_DIR      static pages directory
//	SNOF_SESSION_SECRET  JWT signing secret
//	SNOF_SESSION_TTL     session lifetime (Go duration)
//	SNOF_SMTP_HOST / SNOF_SMTP_PORT / SNOF_SMTP_USERNAME / SNOF_SMTP_PASSWORD
//	SNOF_MAIL_FROM       sender address
//	SNOF_AVATAR_ENDPOINT avatar provider base URL ("off" disables)
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString("SNOF_ADDRESS", &config.EndpointAddrHTTP)
	setString("SNOF_DATABASE_FILE", &config.DatabaseFile)
	setString("SNOF_PUBLIC_DIR", &config.PublicDir)
	setString("SNOF_SESSION_SECRET", &config.SessionSecret)
	setString("SNOF_SMTP_HOST", &config.SMTPHost)
	setString("SNOF_SMTP_USERNAME", &config.SMTPUsername)
	setString("SNOF_SMTP_PASSWORD", &config.SMTPPassword)
	setString("SNOF_MAIL_FROM", &config.MailFrom)

	if v, ok := os.LookupEnv("SNOF_AVATAR_ENDPOINT"); ok {
		if v == "off" {
			config.AvatarEndpoint = ""
		} else {
			config.AvatarEndpoint = v
		}
	}

	if v, ok := os.LookupEnv("SNOF_SMTP_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			config.SMTPPort = port
		}
	}

	if v, ok := os.LookupEnv("SNOF_SESSION_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SessionTTL = d
		}
	}
}
