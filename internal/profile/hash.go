// Package profile implements the security-profile store: adaptive
// credential hashing, a repository interface, and file- and
// Postgres-backed implementations.
package profile

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dkovalov/confidant/internal/common"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for credential hashing. These are deliberately
// heavier than a general-purpose hash: the stored value must survive an
// offline attack on the profile file.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	hashSaltSize = 16
)

// HashSecret hashes a credential with argon2id and a fresh random salt,
// returning a self-describing PHC-style string:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<b64 salt>$<b64 digest>
//
// The plaintext secret is never persisted; each call generates a new salt,
// so re-hashing never reuses one.
func HashSecret(secret []byte) string {
	salt := common.GenerateRandByteArray(hashSaltSize)
	digest := argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest))
}

// VerifySecret recomputes the hash described by encoded over candidate and
// compares digests in constant time.
func VerifySecret(encoded string, candidate []byte) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("malformed credential hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed credential hash version: %w", err)
	}
	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("malformed credential hash params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("malformed credential hash salt: %w", err)
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("malformed credential hash digest: %w", err)
	}

	computed := argon2.IDKey(candidate, salt, time, memory, threads, uint32(len(digest)))
	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}
