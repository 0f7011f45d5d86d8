// Package config handles configuration for the confidant service,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the confidential manager.
//
// Fields:
//   - DataDir: root directory for profiles, keys, and audit partitions.
//   - MaxFailedAttempts / LockoutDuration: lockout policy.
//   - SessionTTL: lifetime of session tokens.
//   - TotpSkew: accepted TOTP step skew in either direction.
//   - Cipher: AEAD used for symmetric payloads ("aes-gcm" or "chacha20poly1305").
//   - GrantSecret / GrantTTL: HMAC secret and lifetime for exported session
//     grants (HS256). Do not use test defaults in prod.
//   - DatabaseDSN: optional PostgreSQL DSN (pgx); when set, profiles and
//     audit records live in the shared store instead of local files.
//   - S3*: object-storage settings for audit partition archival.
type Config struct {
	DataDir           string
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	SessionTTL        time.Duration
	TotpSkew          uint
	Cipher            string
	GrantSecret       string
	GrantTTL          time.Duration
	DatabaseDSN       string
	S3ArchiveEnabled  bool
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DataDir = "confidant-data"
	c.MaxFailedAttempts = 5
	c.LockoutDuration = 30 * time.Minute
	c.SessionTTL = 2 * time.Hour
	c.TotpSkew = 1
	c.Cipher = "aes-gcm"
	c.GrantSecret = "secretKey"
	c.GrantTTL = 15 * time.Minute
	c.DatabaseDSN = ""
	c.S3ArchiveEnabled = false
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "audit"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
