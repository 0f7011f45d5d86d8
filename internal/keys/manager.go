// Package keys implements the key manager: derivation and at-rest storage
// of per-user symmetric keys and, for elevated security levels, RSA
// keypairs. All key material lives under the manager's directory with
// owner-only permissions.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/filex"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2-SHA256 parameters for the symmetric key. The iteration count
	// stays above the 10^5 floor expected of a slow derivation.
	kdfIterations = 120_000
	saltSize      = 32
	keySize       = 32

	rsaBits = 2048
)

// symmetricKeyFile is the on-disk record for a derived symmetric key.
// The salt is kept beside the key so the derivation can be repeated
// during credential verification or re-enrollment.
type symmetricKeyFile struct {
	Algorithm  string `json:"algorithm"`
	Iterations int    `json:"iterations"`
	Salt       []byte `json:"salt"`
	Key        []byte `json:"key"`
}

// Manager owns all key material on disk.
type Manager struct {
	dir string
}

// NewManager creates (if needed) the key directory under dataDir and
// returns a Manager rooted there.
func NewManager(dataDir string) (*Manager, error) {
	dir, err := filex.EnsureDir(filepath.Join(dataDir, "keys"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return &Manager{dir: dir}, nil
}

// DeriveSymmetricKey derives a fresh symmetric key for the user from the
// master secret using PBKDF2-SHA256 with a newly generated random salt,
// persists it, and returns the key. An existing key for the user is
// replaced atomically.
func (m *Manager) DeriveSymmetricKey(userID string, masterSecret []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(saltSize)

	key := pbkdf2.Key(masterSecret, salt, kdfIterations, keySize, sha256.New)
	if len(key) != keySize {
		return nil, common.ErrKeyDerivationFailed
	}

	record := symmetricKeyFile{
		Algorithm:  "pbkdf2-sha256",
		Iterations: kdfIterations,
		Salt:       salt,
		Key:        key,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyDerivationFailed, err)
	}
	if err := filex.AtomicWrite(m.symmetricKeyPath(userID), data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return key, nil
}

// LoadSymmetricKey loads the user's stored symmetric key. A missing key is
// ErrKeyNotFound; callers recover by re-enrolling, never by substituting a
// default key.
func (m *Manager) LoadSymmetricKey(userID string) ([]byte, error) {
	data, err := os.ReadFile(m.symmetricKeyPath(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	record := symmetricKeyFile{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: corrupt key file: %v", common.ErrStorageIO, err)
	}
	if len(record.Key) != keySize {
		return nil, fmt.Errorf("%w: unexpected key size %d", common.ErrKeyNotFound, len(record.Key))
	}
	return record.Key, nil
}

// GenerateKeypair generates an RSA-2048 keypair for the user and persists
// both halves as PEM files with owner-only permissions. The private key
// never leaves the manager's directory.
func (m *Manager) GenerateKeypair(userID string) (*rsa.PrivateKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyDerivationFailed, err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyDerivationFailed, err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	if err := filex.AtomicWrite(m.privateKeyPath(userID), privPEM, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	if err := filex.AtomicWrite(m.publicKeyPath(userID), pubPEM, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return priv, nil
}

// LoadKeypair loads the user's RSA keypair. Missing files are ErrKeyNotFound.
func (m *Manager) LoadKeypair(userID string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(m.privateKeyPath(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return nil, fmt.Errorf("%w: not a private key PEM", common.ErrKeyNotFound)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyNotFound, err)
	}
	return priv, nil
}

// LoadPublicKey loads only the public half, used on the encrypt path.
func (m *Manager) LoadPublicKey(userID string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(m.publicKeyPath(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("%w: not a public key PEM", common.ErrKeyNotFound)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrKeyNotFound, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected public key type", common.ErrKeyNotFound)
	}
	return rsaPub, nil
}

func (m *Manager) symmetricKeyPath(userID string) string {
	return filepath.Join(m.dir, userID+".key.json")
}

func (m *Manager) privateKeyPath(userID string) string {
	return filepath.Join(m.dir, userID+".rsa.pem")
}

func (m *Manager) publicKeyPath(userID string) string {
	return filepath.Join(m.dir, userID+".rsa.pub.pem")
}
