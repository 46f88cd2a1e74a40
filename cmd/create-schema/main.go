package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"taxlaw-backend/vectorindex"
)

var tableStatements = []string{
	`CREATE TABLE IF NOT EXISTS tax_returns (
		id BIGSERIAL PRIMARY KEY,
		tin VARCHAR(32) NOT NULL DEFAULT '',
		assessment_year VARCHAR(16) NOT NULL DEFAULT '',
		payable DOUBLE PRECISION NOT NULL DEFAULT 0,
		refundable DOUBLE PRECISION NOT NULL DEFAULT 0,
		computation JSONB NOT NULL,
		citations JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tax_returns_tin ON tax_returns(tin)`,
	`CREATE INDEX IF NOT EXISTS idx_tax_returns_created_at ON tax_returns(created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		event_type VARCHAR(64) NOT NULL,
		details JSONB NOT NULL DEFAULT '{}'::jsonb,
		user_tin VARCHAR(32) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_event_type ON audit_logs(event_type)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_user_tin ON audit_logs(user_tin)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		file_type VARCHAR(16) NOT NULL,
		mime_type VARCHAR(128) NOT NULL,
		size BIGINT NOT NULL,
		storage_path VARCHAR(512) NOT NULL DEFAULT '',
		chunks INTEGER NOT NULL DEFAULT 0,
		preview TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC)`,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: No .env file found, using environment variables")
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL must point at a Postgres database")
	}

	dims := 1536
	if raw := os.Getenv("EMBEDDING_DIMENSIONS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Fatalf("Invalid EMBEDDING_DIMENSIONS %q", raw)
		}
		dims = n
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	for _, stmt := range tableStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to execute schema statement: %v\n%s", err, stmt)
		}
	}
	log.Println("Tables tax_returns, audit_logs and documents are ready")

	if os.Getenv("VECTOR_INDEX") != "pgvector" {
		log.Println("VECTOR_INDEX is not pgvector; skipping document_chunks")
		return
	}
	for _, stmt := range vectorindex.ChunkTableDDL(dims) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to execute vector statement: %v\n%s", err, stmt)
		}
	}
	log.Printf("Table document_chunks ready with vector(%d)", dims)
}
