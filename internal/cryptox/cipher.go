// Package cryptox implements the crypto engine: tier-dependent selection
// of no encryption, symmetric AEAD, or the hybrid RSA+AEAD scheme, plus
// the pluggable AEAD ciphers it runs on.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Supported cipher names for config.
const (
	CipherAESGCM   = "aes-gcm"
	CipherChaCha20 = "chacha20poly1305"
)

// Cipher provides AEAD encryption/decryption over a fixed key.
type Cipher interface {
	// Encrypt encrypts plaintext with the given nonce.
	Encrypt(nonce, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext with the given nonce.
	Decrypt(nonce, ciphertext []byte) ([]byte, error)

	// NonceSize returns the size of nonces in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size.
	Overhead() int
}

// NewCipher builds the named AEAD over a 32-byte key.
func NewCipher(name string, key []byte) (Cipher, error) {
	switch name {
	case CipherAESGCM, "":
		return newAESGCM(key)
	case CipherChaCha20:
		return newChaCha20Poly1305(key)
	default:
		return nil, fmt.Errorf("unsupported cipher %q", name)
	}
}

type aeadCipher struct {
	aead cipher.AEAD
}

func newAESGCM(key []byte) (*aeadCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("AES-256 requires a 32-byte key, got %d bytes", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &aeadCipher{aead: aead}, nil
}

func newChaCha20Poly1305(key []byte) (*aeadCipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ChaCha20-Poly1305 requires a %d-byte key, got %d bytes",
			chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}
	return &aeadCipher{aead: aead}, nil
}

func (c *aeadCipher) Encrypt(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != c.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", c.NonceSize(), len(nonce))
	}
	return c.aead.Seal(nil, nonce, plaintext, nil), nil
}

func (c *aeadCipher) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != c.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", c.NonceSize(), len(nonce))
	}
	return c.aead.Open(nil, nonce, ciphertext, nil)
}

func (c *aeadCipher) NonceSize() int {
	return c.aead.NonceSize()
}

func (c *aeadCipher) Overhead() int {
	return c.aead.Overhead()
}
