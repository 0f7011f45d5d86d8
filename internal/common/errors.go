// Package common defines shared constants and sentinel errors used across
// the confidant components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Profile store errors.
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileNotFound = errors.New("profile not found")

	// Authentication errors.
	ErrAccountLocked     = errors.New("account locked")
	ErrMethodNotEnabled  = errors.New("method not enabled")
	ErrInvalidCredential = errors.New("invalid credential")

	// Key and crypto errors. Decryption and key-derivation failures are
	// integrity-critical: never retried automatically.
	ErrKeyNotFound         = errors.New("key not found")
	ErrKeyDerivationFailed = errors.New("key derivation failed")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")

	// Session errors.
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInsufficientAccess = errors.New("insufficient access")

	// Grant errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Storage errors.
	ErrStorageIO = errors.New("storage i/o error")

	// Validation errors.
	ErrNoMethodsEnabled = errors.New("at least one auth method must be enabled")
)
