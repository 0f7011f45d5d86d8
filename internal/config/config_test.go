package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, 5, cfg.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, uint(1), cfg.TotpSkew)
	assert.Equal(t, "aes-gcm", cfg.Cipher)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.False(t, cfg.S3ArchiveEnabled)
}

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"confidant", "-d", "/tmp/cm", "-m", "3", "-l", "10", "-t", "60", "-z"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "/tmp/cm", cfg.DataDir)
	assert.Equal(t, 3, cfg.MaxFailedAttempts)
	assert.Equal(t, 10*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.S3ArchiveEnabled)
}

func TestParseJson_Overlay(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")

	jc := JsonConfig{
		DataDir:           "/var/lib/cm",
		MaxFailedAttempts: 7,
		Cipher:            "chacha20poly1305",
		GrantSecret:       "k",
		DatabaseDSN:       "postgres://localhost/cm",
		S3Bucket:          "audit-archive",
	}
	data, err := json.Marshal(jc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o600))

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"confidant", "-c", file}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "/var/lib/cm", cfg.DataDir)
	assert.Equal(t, 7, cfg.MaxFailedAttempts)
	assert.Equal(t, "chacha20poly1305", cfg.Cipher)
	assert.Equal(t, "postgres://localhost/cm", cfg.DatabaseDSN)
	assert.Equal(t, "audit-archive", cfg.S3Bucket)
}
