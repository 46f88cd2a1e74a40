package vectorindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGVector keeps chunks in the document_chunks table using the pgvector
// extension.
type PGVector struct {
	db *pgxpool.Pool
}

// NewPGVector uses an existing pool; Close does not close it.
func NewPGVector(db *pgxpool.Pool) *PGVector {
	return &PGVector{db: db}
}

// ChunkTableDDL creates the pgvector table for vectors of dimensions.
func ChunkTableDDL(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_offset INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding
			ON document_chunks USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_source ON document_chunks(source)`,
	}
}

// EnsureIndex implements Index.
func (p *PGVector) EnsureIndex(ctx context.Context, dimensions int) error {
	for _, stmt := range ChunkTableDDL(dimensions) {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure document_chunks: %w", err)
		}
	}
	return nil
}

// formatVector renders v in pgvector's text input format.
func formatVector(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Upsert writes all records in one transaction.
func (p *PGVector) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO document_chunks (id, source, chunk_index, chunk_offset, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)
			ON CONFLICT (id) DO UPDATE SET
				source = EXCLUDED.source,
				chunk_index = EXCLUDED.chunk_index,
				chunk_offset = EXCLUDED.chunk_offset,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding`,
			r.ID, r.Source, r.ChunkIndex, r.Offset, r.Content, formatVector(r.Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Query implements Index.
func (p *PGVector) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := p.db.Query(ctx, `
		SELECT id, source, chunk_index, content, 1 - (embedding <=> $1::vector) AS score
		FROM document_chunks
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, formatVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Source, &m.ChunkIndex, &m.Content, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return matches, nil
}

// Close implements Index.
func (p *PGVector) Close(context.Context) error { return nil }
