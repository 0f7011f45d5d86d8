package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkovalov/confidant/internal/audit"
	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/logging"
	"github.com/dkovalov/confidant/internal/models"
	"github.com/dkovalov/confidant/internal/profile"
	"github.com/dkovalov/confidant/internal/syncx"
	"github.com/google/uuid"
)

// Failure reason strings recorded in the audit log and surfaced to
// collaborators. They carry enough to choose a next step (re-prompt, show
// a countdown, escalate) and nothing about crypto internals.
const (
	reasonProfileNotFound  = "profile not found"
	reasonAccountLocked    = "account locked"
	reasonMethodNotEnabled = "method not enabled"
	reasonInvalidCred      = "invalid credential"
)

// LockoutError reports a lockout along with when it lifts, so callers can
// show a retry-after countdown. It matches common.ErrAccountLocked via
// errors.Is.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *LockoutError) Unwrap() error { return common.ErrAccountLocked }

// RetryAfter returns the remaining lockout duration at the given moment.
func (e *LockoutError) RetryAfter(now time.Time) time.Duration {
	if d := e.Until.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Options configures the lockout policy and TOTP verification window.
type Options struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	TotpSkew          uint
}

// Authenticator validates credentials against stored profiles, maintains
// failure counters and lockout state, and records every attempt in the
// audit log. Attempts for the same user serialize on a keyed mutex so
// racing requests cannot bypass the lockout accounting; attempts for
// different users proceed concurrently.
type Authenticator struct {
	profiles  profile.Repository
	audit     audit.Repository
	locks     *syncx.KeyedMutex
	logger    logging.Logger
	verifiers map[models.AuthMethod]Verifier
	opts      Options

	// now is a test seam.
	now func() time.Time
}

// New constructs an Authenticator over the given stores.
func New(profiles profile.Repository, auditLog audit.Repository, logger logging.Logger, opts Options) *Authenticator {
	if opts.MaxFailedAttempts <= 0 {
		opts.MaxFailedAttempts = 5
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = 30 * time.Minute
	}
	a := &Authenticator{
		profiles: profiles,
		audit:    auditLog,
		locks:    syncx.NewKeyedMutex(),
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
	// The verifier set reads the clock through the authenticator so a test
	// seam on a.now covers TOTP windows too.
	a.verifiers = verifiers(opts.TotpSkew, func() time.Time { return a.now() })
	return a
}

// Authenticate runs the attempt state machine for one credential:
// lock check, method check, credential check. On success the failure
// counter resets and last access updates; on failure the counter advances
// and may trip the lockout. Every outcome is appended to the audit log.
func (a *Authenticator) Authenticate(ctx context.Context, userID string, method models.AuthMethod, credential []byte, requested models.AccessLevel) (*models.SecurityProfile, error) {
	unlock := a.locks.Lock(userID)
	defer unlock()

	now := a.now()

	p, err := a.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrProfileNotFound) {
			a.record(ctx, userID, method, requested, false, reasonProfileNotFound, now)
		}
		return nil, err
	}

	// LockCheck: a locked account accumulates no further penalty for
	// attempts made while locked.
	if p.LockedAt(now) {
		a.record(ctx, userID, method, requested, false, reasonAccountLocked, now)
		return nil, &LockoutError{Until: *p.LockedUntil}
	}
	if p.LockedUntil != nil {
		// The lockout elapsed: cleared, not just ignored.
		p.ClearLockout()
		if err := a.profiles.Save(ctx, p); err != nil {
			return nil, err
		}
	}

	// MethodCheck.
	if !p.MethodEnabled(method) {
		return nil, a.fail(ctx, p, method, requested, reasonMethodNotEnabled, common.ErrMethodNotEnabled, now)
	}

	// CredentialCheck.
	verifier, ok := a.verifiers[method]
	if !ok {
		return nil, a.fail(ctx, p, method, requested, reasonMethodNotEnabled, common.ErrMethodNotEnabled, now)
	}
	match, err := verifier.Verify(p, credential)
	if err != nil {
		// Internal verification trouble is logged but presented as a plain
		// credential failure, so it cannot be used as an oracle.
		a.logger.Error(ctx, "credential verification error", "user", userID, "method", method, "err", err)
		match = false
	}
	if !match {
		return nil, a.fail(ctx, p, method, requested, reasonInvalidCred, common.ErrInvalidCredential, now)
	}

	// Success.
	p.FailedAttempts = 0
	p.ClearLockout()
	ts := now
	p.LastAccess = &ts
	if err := a.profiles.Save(ctx, p); err != nil {
		return nil, err
	}
	a.record(ctx, userID, method, requested, true, "", now)
	return p, nil
}

// fail advances the failure counter, trips the lockout at the configured
// maximum, persists the profile, and records the attempt. The attempt that
// trips the lockout itself reports AccountLocked.
func (a *Authenticator) fail(ctx context.Context, p *models.SecurityProfile, method models.AuthMethod, requested models.AccessLevel, reason string, cause error, now time.Time) error {
	p.FailedAttempts++
	var lockErr *LockoutError
	if p.FailedAttempts >= a.opts.MaxFailedAttempts {
		until := now.Add(a.opts.LockoutDuration)
		p.LockedUntil = &until
		lockErr = &LockoutError{Until: until}
		a.logger.Warn(ctx, "account locked", "user", p.UserID, "until", until, "failed_attempts", p.FailedAttempts)
	}

	if err := a.profiles.Save(ctx, p); err != nil {
		return err
	}
	a.record(ctx, p.UserID, method, requested, false, reason, now)

	if lockErr != nil {
		return lockErr
	}
	return cause
}

func (a *Authenticator) record(ctx context.Context, userID string, method models.AuthMethod, requested models.AccessLevel, success bool, reason string, now time.Time) {
	attempt := &models.AccessAttempt{
		ID:             uuid.NewString(),
		UserID:         userID,
		Timestamp:      now,
		Method:         method,
		RequestedLevel: requested,
		Success:        success,
		Reason:         reason,
	}
	if err := a.audit.Append(ctx, attempt); err != nil {
		// The attempt outcome stands even if the audit write fails.
		a.logger.Error(ctx, "audit append failed", "user", userID, "err", err)
	}
}
