// Package secure encrypts uploaded documents at rest with AES-256-GCM.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
)

// AssociatedData binds every ciphertext to this application.
var AssociatedData = []byte("AITaxLawBDv1")

var hkdfInfo = []byte("taxlaw-backend document encryption")

// ErrCiphertextTooShort is returned by Open for input shorter than a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Cipher seals and opens document blobs. It is safe for concurrent use.
type Cipher struct {
	aead      cipher.AEAD
	ephemeral bool
}

// NewCipher builds a Cipher from a configured secret. A base64 value that
// decodes to 32 bytes is used as the key directly; any other non-empty secret
// is stretched with HKDF-SHA256. An empty secret yields a random key that
// only lives as long as the process.
func NewCipher(secret string) (*Cipher, error) {
	key, ephemeral, err := deriveKey(strings.TrimSpace(secret))
	if err != nil {
		return nil, err
	}
	return NewCipherFromKey(key, ephemeral)
}

// NewCipherFromKey builds a Cipher from a raw 32-byte key.
func NewCipherFromKey(key []byte, ephemeral bool) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES block: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Cipher{aead: aead, ephemeral: ephemeral}, nil
}

func deriveKey(secret string) ([]byte, bool, error) {
	if secret == "" {
		key := make([]byte, KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generate key: %w", err)
		}
		return key, true, nil
	}

	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.StdEncoding, base64.RawURLEncoding, base64.RawStdEncoding} {
		if key, err := enc.DecodeString(secret); err == nil && len(key) == KeySize {
			return key, false, nil
		}
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, false, fmt.Errorf("derive key: %w", err)
	}
	return key, false, nil
}

// Ephemeral reports whether the key was generated at startup. Blobs sealed
// with an ephemeral key cannot be opened after a restart.
func (c *Cipher) Ephemeral() bool {
	return c.ephemeral
}

// Encrypt returns a fresh nonce and the ciphertext of plain.
func (c *Cipher) Encrypt(plain []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, c.aead.Seal(nil, nonce, plain, AssociatedData), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	plain, err := c.aead.Open(nil, nonce, ciphertext, AssociatedData)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plain, nil
}

// Seal encrypts plain and returns nonce || ciphertext.
func (c *Cipher) Seal(plain []byte) ([]byte, error) {
	nonce, ct, err := c.Encrypt(plain)
	if err != nil {
		return nil, err
	}
	return append(nonce, ct...), nil
}

// Open splits a Seal output and decrypts it.
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize {
		return nil, ErrCiphertextTooShort
	}
	return c.Decrypt(sealed[:NonceSize], sealed[NonceSize:])
}
