package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/models"
)

// Repository is the persistence contract for security profiles.
type Repository interface {
	// Create stores a new profile; an existing profile for the same user
	// is ErrProfileExists.
	Create(ctx context.Context, p *models.SecurityProfile) error

	// Get loads a profile, or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*models.SecurityProfile, error)

	// Save replaces the stored profile atomically.
	Save(ctx context.Context, p *models.SecurityProfile) error
}

// EnrollmentOptions carries the optional secondary credentials supplied at
// enrollment time. Secrets arrive in plaintext and are hashed here; only
// hashes reach the profile.
type EnrollmentOptions struct {
	Pin           []byte
	TotpSecret    string
	Phrases       []string
	VoicePrintRef string
	BiometricRef  string
}

// Build validates enrollment input and assembles a new SecurityProfile.
// The master secret is hashed with the adaptive salted hash; the plaintext
// is never retained.
func Build(userID string, masterSecret []byte, level models.SecurityLevel, methods []models.AuthMethod, opts EnrollmentOptions, now time.Time) (*models.SecurityProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("empty user id")
	}
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("empty master secret")
	}
	if !level.Valid() {
		return nil, fmt.Errorf("unknown security level %q", level)
	}
	if len(methods) == 0 {
		return nil, common.ErrNoMethodsEnabled
	}
	for _, m := range methods {
		if !m.Valid() {
			return nil, fmt.Errorf("unknown auth method %q", m)
		}
	}

	p := &models.SecurityProfile{
		UserID:         userID,
		SecurityLevel:  level,
		EnabledMethods: methods,
		MasterHash:     HashSecret(masterSecret),
		TotpSecret:     opts.TotpSecret,
		CreatedAt:      now,
	}
	if opts.VoicePrintRef != "" {
		p.VoicePrintHash = HashReference([]byte(opts.VoicePrintRef))
	}
	if opts.BiometricRef != "" {
		p.BiometricHash = HashReference([]byte(opts.BiometricRef))
	}
	if len(opts.Pin) > 0 {
		p.PinHash = HashSecret(opts.Pin)
	}
	for _, phrase := range opts.Phrases {
		p.PhraseHashes = append(p.PhraseHashes, HashSecret([]byte(NormalizePhrase(phrase))))
	}
	return p, nil
}

// NormalizePhrase lowers and trims a security phrase so matching is
// case-insensitive and whitespace-tolerant.
func NormalizePhrase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HashReference digests a voice-print or biometric reference sample for
// storage. These are placeholder-strength references: the core only ever
// compares digests in constant time, it does no feature matching.
func HashReference(sample []byte) string {
	sum := sha256.Sum256(sample)
	return hex.EncodeToString(sum[:])
}
