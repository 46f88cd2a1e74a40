// Package vectorindex stores chunk embeddings and answers nearest-neighbour
// queries. Backends: in-process memory, Milvus and Postgres pgvector.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxlaw-backend/config"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrUnknownBackend    = errors.New("unknown vector index backend")
)

// Record is one embedded chunk.
type Record struct {
	ID         string
	Source     string
	ChunkIndex int
	Offset     int
	Content    string
	Vector     []float32
}

// Match is a query hit. Score is cosine similarity, higher is closer.
type Match struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// Index is implemented by every backend. Upserting an existing ID replaces it.
type Index interface {
	EnsureIndex(ctx context.Context, dimensions int) error
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	Close(ctx context.Context) error
}

// New opens the backend named in settings. pool is only used by pgvector.
func New(ctx context.Context, s *config.Settings, pool *pgxpool.Pool) (Index, error) {
	switch s.VectorIndex {
	case "memory":
		return NewMemory(), nil
	case "milvus":
		return NewMilvus(ctx, s.MilvusAddress, s.VectorIndexName)
	case "pgvector":
		if pool == nil {
			return nil, fmt.Errorf("pgvector index requires a postgres pool")
		}
		return NewPGVector(pool), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, s.VectorIndex)
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// truncateRunes cuts s to at most limit bytes without splitting a UTF-8
// sequence.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}
