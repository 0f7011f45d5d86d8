// Package auth implements the authenticator: the per-attempt state machine
// (lock check, method check, credential check), lockout accounting, and the
// closed set of credential verifiers.
package auth

import (
	"crypto/subtle"
	"time"

	"github.com/dkovalov/confidant/internal/models"
	"github.com/dkovalov/confidant/internal/profile"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Verifier checks one credential kind against a profile. Adding an auth
// method means adding one implementation here; nothing else branches on
// the method.
type Verifier interface {
	Verify(p *models.SecurityProfile, credential []byte) (bool, error)
}

// totpPeriod is the RFC 6238 time step in seconds.
const totpPeriod = 30

type passwordVerifier struct{}

func (passwordVerifier) Verify(p *models.SecurityProfile, credential []byte) (bool, error) {
	return profile.VerifySecret(p.MasterHash, credential)
}

type pinVerifier struct{}

func (pinVerifier) Verify(p *models.SecurityProfile, credential []byte) (bool, error) {
	if p.PinHash == "" {
		return false, nil
	}
	return profile.VerifySecret(p.PinHash, credential)
}

type totpVerifier struct {
	skew uint
	now  func() time.Time
}

func (v totpVerifier) Verify(p *models.SecurityProfile, credential []byte) (bool, error) {
	if p.TotpSecret == "" {
		return false, nil
	}
	return totp.ValidateCustom(string(credential), p.TotpSecret, v.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      v.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

type phraseVerifier struct{}

func (phraseVerifier) Verify(p *models.SecurityProfile, credential []byte) (bool, error) {
	normalized := []byte(profile.NormalizePhrase(string(credential)))
	for _, hash := range p.PhraseHashes {
		ok, err := profile.VerifySecret(hash, normalized)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// referenceVerifier covers the placeholder voice-print and biometric
// methods: a constant-time digest comparison against the enrolled
// reference, nothing more.
type referenceVerifier struct {
	stored func(p *models.SecurityProfile) string
}

func (v referenceVerifier) Verify(p *models.SecurityProfile, credential []byte) (bool, error) {
	stored := v.stored(p)
	if stored == "" {
		return false, nil
	}
	candidate := profile.HashReference(credential)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1, nil
}

// verifiers assembles the closed verifier set.
func verifiers(totpSkew uint, now func() time.Time) map[models.AuthMethod]Verifier {
	return map[models.AuthMethod]Verifier{
		models.MethodPassword: passwordVerifier{},
		models.MethodPin:      pinVerifier{},
		models.MethodTotp:     totpVerifier{skew: totpSkew, now: now},
		models.MethodPhrase:   phraseVerifier{},
		models.MethodVoicePrint: referenceVerifier{
			stored: func(p *models.SecurityProfile) string { return p.VoicePrintHash },
		},
		models.MethodBiometric: referenceVerifier{
			stored: func(p *models.SecurityProfile) string { return p.BiometricHash },
		},
	}
}
