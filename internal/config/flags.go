package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkovalov/confidant/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory
//	-m int      max failed attempts before lockout
//	-l int      lockout duration, minutes
//	-t int      session TTL, minutes
//	-k string   cipher for symmetric payloads
//	-s string   HMAC secret for session grants
//	-g int      grant TTL, minutes
//	-p string   PostgreSQL DSN (enables the shared store backend)
//	-u string   S3 root user
//	-w string   S3 root password
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-z bool     enable S3 audit archival
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-m", "-l", "-t", "-k", "-s", "-g", "-p", "-u", "-w", "-b", "-r", "-e", "-z"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.IntVar(&config.MaxFailedAttempts, "m", config.MaxFailedAttempts, "max failed attempts before lockout")

	lockoutDuration := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout_duration (in minutes)")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session_ttl (in minutes)")

	fs.StringVar(&config.Cipher, "k", config.Cipher, "symmetric cipher")
	fs.StringVar(&config.GrantSecret, "s", config.GrantSecret, "grant secret key")
	grantTTL := fs.Int("g", int(config.GrantTTL.Minutes()), "grant_ttl (in minutes)")

	fs.StringVar(&config.DatabaseDSN, "p", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "w", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.S3ArchiveEnabled, "z", config.S3ArchiveEnabled, "enable S3 audit archival")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.GrantTTL = time.Duration(*grantTTL) * time.Minute
}
