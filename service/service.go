package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"taxlaw-backend/models"
)

var (
	ErrReturnNotFound      = errors.New("tax return not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("document is empty")
	ErrEmptyQuery          = errors.New("search query is empty")
	ErrEmptyConversation   = errors.New("conversation has no messages")
	ErrInvalidMessage      = errors.New("invalid chat message")
	ErrInvalidTemperature  = errors.New("temperature must be between 0 and 2")
)

// ReturnRepository persists generated returns. Implemented by
// repository.TaxReturnRepository and repository.SQLiteTaxReturnRepository.
type ReturnRepository interface {
	CreateWithAudit(ctx context.Context, taxReturn *models.TaxReturn, audit *models.AuditLog) error
	GetByID(ctx context.Context, id int64) (*models.TaxReturn, error)
	List(ctx context.Context, limit int) ([]*models.TaxReturn, error)
	ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

// DocumentRepository persists uploaded document metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, limit int) ([]*models.Document, error)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == limit {
			return s[:pos]
		}
		i++
	}
	return s
}
