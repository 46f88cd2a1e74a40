package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taxlaw-backend/models"
)

// SQLiteDocumentRepository is the SQLite flavour of DocumentRepository.
type SQLiteDocumentRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteDocumentRepository uses a database opened with OpenSQLite.
func NewSQLiteDocumentRepository(db *sql.DB) *SQLiteDocumentRepository {
	return &SQLiteDocumentRepository{db: db, now: time.Now}
}

// Create inserts a document record
func (r *SQLiteDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	createdAt := r.now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, filename, file_type, mime_type, size, storage_path, chunks, preview, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID.String(),
		doc.Filename,
		doc.FileType,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
		doc.Chunks,
		doc.Preview,
		formatSQLiteTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	doc.CreatedAt = createdAt
	return nil
}

func scanSQLiteDocument(row rowScanner) (*models.Document, error) {
	doc := &models.Document{}
	var id, createdAt string
	if err := row.Scan(
		&id,
		&doc.Filename,
		&doc.FileType,
		&doc.MimeType,
		&doc.Size,
		&doc.StoragePath,
		&doc.Chunks,
		&doc.Preview,
		&createdAt,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse document id %q: %w", id, err)
	}
	doc.ID = parsed
	if doc.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID retrieves a document by ID
func (r *SQLiteDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, file_type, mime_type, size, storage_path, chunks, preview, created_at
		FROM documents
		WHERE id = ?`, id.String())

	doc, err := scanSQLiteDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List retrieves the most recent documents, newest first
func (r *SQLiteDocumentRepository) List(ctx context.Context, limit int) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, file_type, mime_type, size, storage_path, chunks, preview, created_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*models.Document{}
	for rows.Next() {
		doc, err := scanSQLiteDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
