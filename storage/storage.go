package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"taxlaw-backend/config"
)

// ErrNotFound is returned by Download for a path that holds no object.
var ErrNotFound = errors.New("stored object not found")

// Storage interface for blob storage operations
type Storage interface {
	// Upload stores a blob and returns the storage path
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a blob by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a blob by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// ConfigFromSettings picks the storage fields out of the service settings.
func ConfigFromSettings(s *config.Settings) StorageConfig {
	return StorageConfig{
		Type:         StorageType(s.StorageType),
		LocalPath:    s.StorageLocalPath,
		S3Bucket:     s.S3Bucket,
		S3Region:     s.AWSRegion,
		AWSAccessKey: s.AWSAccessKeyID,
		AWSSecretKey: s.AWSSecretKey,
	}
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./storage/files"
		}
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// sanitizeName keeps letters, digits, dot, dash and underscore; everything
// else becomes an underscore.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
}

// generateStoragePath generates a unique storage path for a file:
// <first two id chars>/<id>_<sanitised base><ext>
func generateStoragePath(fileID uuid.UUID, filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	ext := filepath.Ext(filename)
	baseName := sanitizeName(strings.TrimSuffix(filename, ext))
	id := fileID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, baseName, sanitizeName(ext))
}

// validStoragePath rejects absolute paths and parent references.
func validStoragePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "\\") {
		return false
	}
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return false
		}
	}
	return true
}

// ContentType determines content type from filename
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".md":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
