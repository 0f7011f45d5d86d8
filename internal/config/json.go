package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkovalov/confidant/internal/flagx"
	"github.com/dkovalov/confidant/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DataDir           string         `json:"data_dir"`
	MaxFailedAttempts int            `json:"max_failed_attempts"`
	LockoutDuration   timex.Duration `json:"lockout_duration"`
	SessionTTL        timex.Duration `json:"session_ttl"`
	TotpSkew          uint           `json:"totp_skew"`
	Cipher            string         `json:"cipher"`
	GrantSecret       string         `json:"grant_secret"`
	GrantTTL          timex.Duration `json:"grant_ttl"`
	DatabaseDSN       string         `json:"database_dsn"`
	S3ArchiveEnabled  bool           `json:"s3_archive_enabled"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c/-config flags; if no
// flag is set, no JSON file is loaded. A missing or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DataDir = c.DataDir
	config.MaxFailedAttempts = c.MaxFailedAttempts
	config.LockoutDuration = time.Duration(c.LockoutDuration.Duration)
	config.SessionTTL = time.Duration(c.SessionTTL.Duration)
	config.TotpSkew = c.TotpSkew
	config.Cipher = c.Cipher
	config.GrantSecret = c.GrantSecret
	config.GrantTTL = time.Duration(c.GrantTTL.Duration)
	config.DatabaseDSN = c.DatabaseDSN
	config.S3ArchiveEnabled = c.S3ArchiveEnabled
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
