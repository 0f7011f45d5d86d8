// Package manager wires the profile store, key manager, encryption engine,
// authenticator, audit log and session manager into one front door for the
// confidential manager.
package manager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkovalov/confidant/internal/audit"
	"github.com/dkovalov/confidant/internal/auth"
	"github.com/dkovalov/confidant/internal/config"
	"github.com/dkovalov/confidant/internal/cryptox"
	"github.com/dkovalov/confidant/internal/keys"
	"github.com/dkovalov/confidant/internal/logging"
	"github.com/dkovalov/confidant/internal/models"
	"github.com/dkovalov/confidant/internal/profile"
	"github.com/dkovalov/confidant/internal/session"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/pressly/goose/v3"

	"github.com/dkovalov/confidant/internal/migrations"
)

// totpIssuer names this service in enrollment provisioning URIs.
const totpIssuer = "confidant"

// gooseUpContext is a seam for testing migrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Manager is the service facade. Profiles and audit records live either in
// local files under DataDir or, when a DSN is configured, in PostgreSQL;
// derived keys always stay local, and sessions always stay in memory.
type Manager struct {
	cfg      *config.Config
	logger   logging.Logger
	profiles profile.Repository
	auditLog audit.Repository
	keys     *keys.Manager
	engine   *cryptox.Engine
	auth     *auth.Authenticator
	sessions *session.Manager

	fileLog *audit.Log
	db      *sql.DB
}

// New builds a Manager from configuration. With a DatabaseDSN it opens the
// pool and runs the embedded migrations before serving.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Manager, error) {
	m := &Manager{cfg: cfg, logger: logger}

	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		m.db = db
		m.profiles = profile.NewPostgresRepository(db)
		m.auditLog = audit.NewPostgresRepository(db)
	} else {
		repo, err := profile.NewFileRepository(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("profile store: %w", err)
		}
		log, err := audit.NewLog(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
		m.profiles = repo
		m.auditLog = log
		m.fileLog = log
	}

	km, err := keys.NewManager(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("key manager: %w", err)
	}
	m.keys = km
	m.engine = cryptox.NewEngine(km, cfg.Cipher)

	m.auth = auth.New(m.profiles, m.auditLog, logger, auth.Options{
		MaxFailedAttempts: cfg.MaxFailedAttempts,
		LockoutDuration:   cfg.LockoutDuration,
		TotpSkew:          cfg.TotpSkew,
	})
	m.sessions = session.NewManager(session.NewMemoryStore(), logger, cfg.SessionTTL)

	return m, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// Close releases the database pool, if any.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Enrollment is what CreateProfile hands back to the caller: the stored
// profile plus one-time provisioning material that is not persisted in
// recoverable form anywhere else.
type Enrollment struct {
	Profile *models.SecurityProfile

	// TotpURL is the otpauth:// provisioning URI, set only when the TOTP
	// method is enabled and the secret was generated here.
	TotpURL string
}

// CreateProfile enrolls a user: validates and hashes the credentials,
// persists the profile, derives the symmetric content key from the master
// secret, and generates an RSA keypair for Enhanced and Maximum postures.
// When the TOTP method is enabled without a caller-supplied secret, a fresh
// one is generated and its provisioning URI returned.
func (m *Manager) CreateProfile(ctx context.Context, userID string, masterSecret []byte, level models.SecurityLevel, methods []models.AuthMethod, opts profile.EnrollmentOptions) (*Enrollment, error) {
	enr := &Enrollment{}

	if methodListed(methods, models.MethodTotp) && opts.TotpSecret == "" {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      totpIssuer,
			AccountName: userID,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			return nil, fmt.Errorf("generate totp secret: %w", err)
		}
		opts.TotpSecret = key.Secret()
		enr.TotpURL = key.URL()
	}

	p, err := profile.Build(userID, masterSecret, level, methods, opts, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := m.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	if _, err := m.keys.DeriveSymmetricKey(userID, masterSecret); err != nil {
		m.logger.Error(ctx, "key derivation failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("derive content key: %w", err)
	}
	if level.NeedsKeypair() {
		if _, err := m.keys.GenerateKeypair(userID); err != nil {
			return nil, fmt.Errorf("generate keypair: %w", err)
		}
	}

	m.logger.Info(ctx, "profile created",
		"user_id", userID, "security_level", level, "methods", len(methods))
	enr.Profile = p
	return enr, nil
}

// Authenticate runs the full authentication flow and, on success, mints a
// session granting the requested access level. The returned token is the
// only handle to the session.
func (m *Manager) Authenticate(ctx context.Context, userID string, method models.AuthMethod, credential []byte, requested models.AccessLevel) (string, error) {
	if !requested.Valid() {
		return "", fmt.Errorf("invalid access level %q", requested)
	}
	if _, err := m.auth.Authenticate(ctx, userID, method, credential, requested); err != nil {
		return "", err
	}
	return m.sessions.Create(ctx, userID, requested)
}

// VerifySession checks the token against the required access level.
func (m *Manager) VerifySession(ctx context.Context, token string, required models.AccessLevel) (*models.Session, error) {
	return m.sessions.Verify(ctx, token, required)
}

// Logout destroys the session behind the token, if it exists.
func (m *Manager) Logout(token string) {
	m.sessions.Destroy(token)
}

// SweepSessions drops expired sessions and returns how many were removed.
func (m *Manager) SweepSessions(ctx context.Context) int {
	return m.sessions.Sweep(ctx)
}

// ExportGrant trades a live session for a signed, self-contained grant
// that downstream services can check without this manager's session store.
func (m *Manager) ExportGrant(ctx context.Context, token string) (string, error) {
	s, err := m.sessions.Verify(ctx, token, models.Public)
	if err != nil {
		return "", err
	}
	return session.ExportGrant(s, []byte(m.cfg.GrantSecret), m.cfg.GrantTTL, time.Now())
}

// Encrypt protects content at the given tier using the owner's configured
// security posture. It returns the ciphertext and the method tag needed to
// decrypt it later.
func (m *Manager) Encrypt(ctx context.Context, userID string, plaintext []byte, tier models.AccessLevel) ([]byte, cryptox.Method, error) {
	p, err := m.profiles.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return m.engine.Encrypt(userID, plaintext, tier, p.SecurityLevel)
}

// Decrypt reverses Encrypt for the given method tag. Integrity failures
// are logged at error level; they indicate corruption or tampering, not
// ordinary bad input.
func (m *Manager) Decrypt(ctx context.Context, userID string, ciphertext []byte, method cryptox.Method) ([]byte, error) {
	plaintext, err := m.engine.Decrypt(userID, ciphertext, method)
	if err != nil {
		m.logger.Error(ctx, "decryption failed", "user_id", userID, "method", method, "err", err)
		return nil, err
	}
	return plaintext, nil
}

// SecurityStats folds the user's recent attempts into a summary, annotated
// with any active lockout from the profile.
func (m *Manager) SecurityStats(ctx context.Context, userID string, limit int) (*audit.Stats, error) {
	p, err := m.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := m.auditLog.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	stats := audit.ComputeStats(userID, attempts)
	if p.LockedUntil != nil && time.Now().Before(*p.LockedUntil) {
		stats.LockedUntil = p.LockedUntil
	}
	return stats, nil
}

// ArchiveAudit uploads closed audit partitions to object storage. It is a
// no-op unless archival is enabled and the audit log is file-backed.
func (m *Manager) ArchiveAudit(ctx context.Context) ([]string, error) {
	if !m.cfg.S3ArchiveEnabled || m.fileLog == nil {
		return nil, nil
	}
	archiver := audit.NewArchiver(m.fileLog, audit.S3Options{
		RootUser:     m.cfg.S3RootUser,
		RootPassword: m.cfg.S3RootPassword,
		Bucket:       m.cfg.S3Bucket,
		Region:       m.cfg.S3Region,
		BaseEndpoint: m.cfg.S3BaseEndpoint,
	}, m.logger)
	return archiver.ArchiveClosed(ctx)
}

func methodListed(methods []models.AuthMethod, want models.AuthMethod) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}
