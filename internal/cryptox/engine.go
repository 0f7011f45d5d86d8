package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/models"
)

// Method tags how a piece of ciphertext was produced, so decryption can
// dispatch without guessing.
type Method string

const (
	MethodNone      Method = "none"
	MethodSymmetric Method = "symmetric"
	MethodHybrid    Method = "hybrid"
)

// envelopeHeaderSize is the length prefix in front of the wrapped one-time
// key inside a hybrid envelope. An explicit binary length replaces any
// text-delimiter scheme, which would be ambiguous against arbitrary
// binary content.
const envelopeHeaderSize = 4

// oneTimeKeySize is the size of the per-message symmetric key wrapped by
// the recipient's public key in the hybrid scheme.
const oneTimeKeySize = 32

// KeyStore is the slice of the key manager the engine needs.
type KeyStore interface {
	LoadSymmetricKey(userID string) ([]byte, error)
	LoadKeypair(userID string) (*rsa.PrivateKey, error)
	LoadPublicKey(userID string) (*rsa.PublicKey, error)
}

// Engine performs tier-dependent encryption using keys obtained from the
// key store. Ciphertext is non-deterministic: a fresh nonce (and, for
// hybrid, a fresh one-time key) is generated on every call.
type Engine struct {
	keys       KeyStore
	cipherName string
}

// NewEngine returns an Engine using the named AEAD for symmetric payloads.
func NewEngine(keys KeyStore, cipherName string) *Engine {
	if cipherName == "" {
		cipherName = CipherAESGCM
	}
	return &Engine{keys: keys, cipherName: cipherName}
}

// Encrypt protects plaintext according to the content tier and the user's
// security level:
//
//   - below Confidential: stored as-is, method "none";
//   - Confidential, or Secret/UltraSecret without Maximum posture:
//     AEAD with the user's derived key, method "symmetric";
//   - Secret/UltraSecret with Maximum posture: hybrid envelope,
//     method "hybrid".
func (e *Engine) Encrypt(userID string, plaintext []byte, tier models.AccessLevel, level models.SecurityLevel) ([]byte, Method, error) {
	if !tier.Valid() {
		return nil, "", fmt.Errorf("%w: invalid tier %q", common.ErrEncryptionFailed, tier)
	}

	switch {
	case !tier.Dominates(models.Confidential):
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, MethodNone, nil

	case tier.Dominates(models.Secret) && level == models.Maximum:
		ciphertext, err := e.encryptHybrid(userID, plaintext)
		if err != nil {
			return nil, "", err
		}
		return ciphertext, MethodHybrid, nil

	default:
		ciphertext, err := e.encryptSymmetric(userID, plaintext)
		if err != nil {
			return nil, "", err
		}
		return ciphertext, MethodSymmetric, nil
	}
}

// Decrypt reverses Encrypt, dispatching on the method tag. Any integrity
// mismatch (corrupted ciphertext, wrong key, tampering) is a hard
// ErrDecryptionFailed, never a partial decode.
func (e *Engine) Decrypt(userID string, ciphertext []byte, method Method) ([]byte, error) {
	switch method {
	case MethodNone:
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	case MethodSymmetric:
		return e.decryptSymmetric(userID, ciphertext)
	case MethodHybrid:
		return e.decryptHybrid(userID, ciphertext)
	default:
		return nil, fmt.Errorf("%w: unknown method %q", common.ErrDecryptionFailed, method)
	}
}

func (e *Engine) encryptSymmetric(userID string, plaintext []byte) ([]byte, error) {
	key, err := e.keys.LoadSymmetricKey(userID)
	if err != nil {
		return nil, err
	}
	return e.seal(key, plaintext)
}

func (e *Engine) decryptSymmetric(userID string, blob []byte) ([]byte, error) {
	key, err := e.keys.LoadSymmetricKey(userID)
	if err != nil {
		return nil, err
	}
	return e.open(key, blob)
}

// encryptHybrid generates a fresh one-time symmetric key, seals the
// plaintext with it, wraps the one-time key with the user's public key,
// and emits a single self-describing envelope:
//
//	[4-byte big-endian length][RSA-OAEP wrapped one-time key][AEAD payload]
//
// The envelope is base64-encoded as a whole for transport.
func (e *Engine) encryptHybrid(userID string, plaintext []byte) ([]byte, error) {
	pub, err := e.keys.LoadPublicKey(userID)
	if err != nil {
		return nil, err
	}

	oneTimeKey := common.GenerateRandByteArray(oneTimeKeySize)
	defer common.WipeByteArray(oneTimeKey)

	payload, err := e.seal(oneTimeKey, plaintext)
	if err != nil {
		return nil, err
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, oneTimeKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}

	envelope := make([]byte, 0, envelopeHeaderSize+len(wrapped)+len(payload))
	envelope = binary.BigEndian.AppendUint32(envelope, uint32(len(wrapped)))
	envelope = append(envelope, wrapped...)
	envelope = append(envelope, payload...)

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(envelope)))
	base64.StdEncoding.Encode(encoded, envelope)
	return encoded, nil
}

func (e *Engine) decryptHybrid(userID string, encoded []byte) ([]byte, error) {
	priv, err := e.keys.LoadKeypair(userID)
	if err != nil {
		return nil, err
	}

	// Strict decoding rejects non-zero trailing padding bits, so a flip in
	// the dead bits of the final base64 character cannot pass unnoticed.
	envelope := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Strict().Decode(envelope, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed envelope encoding", common.ErrDecryptionFailed)
	}
	envelope = envelope[:n]

	if len(envelope) < envelopeHeaderSize {
		return nil, fmt.Errorf("%w: envelope too short", common.ErrDecryptionFailed)
	}
	wrappedLen := int(binary.BigEndian.Uint32(envelope[:envelopeHeaderSize]))
	rest := envelope[envelopeHeaderSize:]
	if wrappedLen <= 0 || wrappedLen > len(rest) {
		return nil, fmt.Errorf("%w: envelope length prefix out of range", common.ErrDecryptionFailed)
	}
	wrapped, payload := rest[:wrappedLen], rest[wrappedLen:]

	oneTimeKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: one-time key unwrap failed", common.ErrDecryptionFailed)
	}
	defer common.WipeByteArray(oneTimeKey)

	if len(oneTimeKey) != oneTimeKeySize {
		return nil, fmt.Errorf("%w: unexpected one-time key size", common.ErrDecryptionFailed)
	}
	return e.open(oneTimeKey, payload)
}

// seal produces nonce||ciphertext with a fresh random nonce.
func (e *Engine) seal(key, plaintext []byte) ([]byte, error) {
	c, err := NewCipher(e.cipherName, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}
	nonce := common.GenerateRandByteArray(c.NonceSize())
	ct, err := c.Encrypt(nonce, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryptionFailed, err)
	}
	return append(nonce, ct...), nil
}

// open splits nonce||ciphertext and authenticates/decrypts it.
func (e *Engine) open(key, blob []byte) ([]byte, error) {
	c, err := NewCipher(e.cipherName, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	if len(blob) < c.NonceSize()+c.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", common.ErrDecryptionFailed)
	}
	nonce, ct := blob[:c.NonceSize()], blob[c.NonceSize():]
	plaintext, err := c.Decrypt(nonce, ct)
	if err != nil {
		return nil, fmt.Errorf("%w: integrity check failed", common.ErrDecryptionFailed)
	}
	return plaintext, nil
}
