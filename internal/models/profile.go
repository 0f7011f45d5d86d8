package models

import "time"

// SecurityProfile is the per-user authentication and encryption record.
// The credential hashes are self-describing strings (algorithm tag, salt,
// digest); the raw secrets are never stored.
type SecurityProfile struct {
	UserID         string        `json:"user_id"`
	SecurityLevel  SecurityLevel `json:"security_level"`
	EnabledMethods []AuthMethod  `json:"enabled_methods"`

	MasterHash string `json:"master_hash"`
	PinHash    string `json:"pin_hash,omitempty"`

	TotpSecret     string   `json:"totp_secret,omitempty"`
	VoicePrintHash string   `json:"voiceprint_hash,omitempty"`
	BiometricHash  string   `json:"biometric_hash,omitempty"`
	PhraseHashes   []string `json:"phrase_hashes,omitempty"`

	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	LastAccess     *time.Time `json:"last_access,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MethodEnabled reports whether m is in the profile's enabled set.
func (p *SecurityProfile) MethodEnabled(m AuthMethod) bool {
	for _, enabled := range p.EnabledMethods {
		if enabled == m {
			return true
		}
	}
	return false
}

// LockedAt reports whether the profile is locked out at the given moment.
func (p *SecurityProfile) LockedAt(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// ClearLockout removes an elapsed (or lifted) lockout.
func (p *SecurityProfile) ClearLockout() {
	p.LockedUntil = nil
}
