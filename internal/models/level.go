// Package models defines the core data types of the confidential manager:
// access levels, security levels, authentication methods, security
// profiles, sessions, and audit records.
package models

import "fmt"

// AccessLevel is the totally ordered sensitivity tier a session or a piece
// of content belongs to, ascending from Public to UltraSecret.
type AccessLevel string

const (
	Public       AccessLevel = "public"
	Private      AccessLevel = "private"
	Confidential AccessLevel = "confidential"
	Secret       AccessLevel = "secret"
	UltraSecret  AccessLevel = "ultra_secret"
)

var levelRank = map[AccessLevel]int{
	Public:       0,
	Private:      1,
	Confidential: 2,
	Secret:       3,
	UltraSecret:  4,
}

// AccessLevels lists all levels in ascending order.
var AccessLevels = []AccessLevel{Public, Private, Confidential, Secret, UltraSecret}

// Valid reports whether l is a known access level.
func (l AccessLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Dominates reports whether l satisfies a requirement of level other,
// i.e. l >= other in the total order. UltraSecret dominates everything;
// Public dominates only itself. An unknown level on either side
// dominates nothing and is dominated by nothing.
func (l AccessLevel) Dominates(other AccessLevel) bool {
	lr, ok := levelRank[l]
	if !ok {
		return false
	}
	or, ok := levelRank[other]
	if !ok {
		return false
	}
	return lr >= or
}

// ParseAccessLevel converts s into an AccessLevel or fails.
func ParseAccessLevel(s string) (AccessLevel, error) {
	l := AccessLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown access level %q", s)
	}
	return l, nil
}

// SecurityLevel is the per-user configured encryption posture. It decides
// whether Secret/UltraSecret content is protected symmetrically or with
// the hybrid scheme.
type SecurityLevel string

const (
	Standard SecurityLevel = "standard"
	Enhanced SecurityLevel = "enhanced"
	Maximum  SecurityLevel = "maximum"
)

// Valid reports whether s is a known security level.
func (s SecurityLevel) Valid() bool {
	switch s {
	case Standard, Enhanced, Maximum:
		return true
	}
	return false
}

// NeedsKeypair reports whether users at this level get an asymmetric
// keypair at enrollment.
func (s SecurityLevel) NeedsKeypair() bool {
	return s == Enhanced || s == Maximum
}

// ParseSecurityLevel converts s into a SecurityLevel or fails.
func ParseSecurityLevel(s string) (SecurityLevel, error) {
	l := SecurityLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown security level %q", s)
	}
	return l, nil
}

// AuthMethod identifies one way a user can prove their identity.
type AuthMethod string

const (
	MethodPassword   AuthMethod = "password"
	MethodPin        AuthMethod = "pin"
	MethodTotp       AuthMethod = "totp"
	MethodPhrase     AuthMethod = "phrase"
	MethodVoicePrint AuthMethod = "voiceprint"
	MethodBiometric  AuthMethod = "biometric"
)

// AuthMethods lists every supported method.
var AuthMethods = []AuthMethod{
	MethodPassword, MethodPin, MethodTotp,
	MethodPhrase, MethodVoicePrint, MethodBiometric,
}

// Valid reports whether m is a known auth method.
func (m AuthMethod) Valid() bool {
	for _, known := range AuthMethods {
		if m == known {
			return true
		}
	}
	return false
}

// ParseAuthMethod converts s into an AuthMethod or fails.
func ParseAuthMethod(s string) (AuthMethod, error) {
	m := AuthMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown auth method %q", s)
	}
	return m, nil
}
