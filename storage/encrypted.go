package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"taxlaw-backend/secure"
)

// EncryptedSuffix is appended to the name of every sealed blob.
const EncryptedSuffix = ".enc"

// Encrypted seals blobs with AES-GCM before handing them to the wrapped
// Storage and opens them again on Download.
type Encrypted struct {
	inner  Storage
	cipher *secure.Cipher
}

// NewEncrypted wraps inner.
func NewEncrypted(inner Storage, cipher *secure.Cipher) *Encrypted {
	return &Encrypted{inner: inner, cipher: cipher}
}

// Upload encrypts data and stores it as <filename>.enc.
func (e *Encrypted) Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error) {
	plain, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	sealed, err := e.cipher.Seal(plain)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt upload: %w", err)
	}
	return e.inner.Upload(ctx, fileID, filename+EncryptedSuffix, bytes.NewReader(sealed))
}

// Download returns the decrypted blob.
func (e *Encrypted) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	rc, err := e.inner.Download(ctx, storagePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored blob: %w", err)
	}
	plain, err := e.cipher.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt stored blob: %w", err)
	}
	return io.NopCloser(bytes.NewReader(plain)), nil
}

// Delete removes the sealed blob.
func (e *Encrypted) Delete(ctx context.Context, storagePath string) error {
	return e.inner.Delete(ctx, storagePath)
}
