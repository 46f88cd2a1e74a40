// Package app wires settings into repositories, clients and services. It is
// shared by the HTTP server and the law ingestion CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taxlaw-backend/config"
	"taxlaw-backend/llm"
	"taxlaw-backend/logger"
	"taxlaw-backend/repository"
	"taxlaw-backend/secure"
	"taxlaw-backend/service"
	"taxlaw-backend/storage"
	"taxlaw-backend/taxcalc"
	"taxlaw-backend/vectorindex"
)

// App holds the long-lived dependencies of one process.
type App struct {
	Settings  *config.Settings
	Tax       *service.TaxService
	Documents *service.DocumentService
	Chat      *service.ChatService

	pool    *pgxpool.Pool
	sqlite  *sql.DB
	clients *llm.Clients
	index   vectorindex.Index
}

// New opens the database, blob storage, model clients and vector index named
// in s and builds the services on top of them.
func New(ctx context.Context, s *config.Settings) (_ *App, err error) {
	a := &App{Settings: s}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	var (
		returnRepo service.ReturnRepository
		docRepo    service.DocumentRepository
	)
	if s.IsPostgres() {
		a.pool, err = initPostgres(ctx, s.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		returnRepo = repository.NewTaxReturnRepository(a.pool)
		docRepo = repository.NewDocumentRepository(a.pool)
	} else {
		a.sqlite, err = repository.OpenSQLite(ctx, s.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		returnRepo = repository.NewSQLiteTaxReturnRepository(a.sqlite)
		docRepo = repository.NewSQLiteDocumentRepository(a.sqlite)
		logger.Info("SQLite store opened", zap.String("path", s.SQLitePath()))
	}

	cipher, err := secure.NewCipher(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}
	if cipher.Ephemeral() {
		logger.Warn("ENCRYPTION_KEY not set; using a per-process key, stored uploads become unreadable after restart")
	}

	blobs, err := storage.NewStorage(ctx, storage.ConfigFromSettings(s))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", zap.String("type", s.StorageType))

	a.clients, err = llm.New(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM clients: %w", err)
	}

	a.index, err = vectorindex.New(ctx, s, a.pool)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if err := a.index.EnsureIndex(ctx, a.clients.Embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("failed to prepare vector index: %w", err)
	}
	logger.Info("Vector index ready",
		zap.String("backend", s.VectorIndex),
		zap.String("provider", a.clients.Provider),
		zap.Int("dimensions", a.clients.Embedder.Dimensions()),
	)

	a.Tax = service.NewTaxService(service.WithReturnRepository(returnRepo))

	a.Documents, err = service.NewDocumentService(
		service.WithDocumentRepository(docRepo),
		service.WithStorage(storage.NewEncrypted(blobs, cipher)),
		service.WithEmbedder(a.clients.Embedder),
		service.WithIndex(a.index),
		service.WithChunkConfig(s.Chunk),
	)
	if err != nil {
		return nil, err
	}

	a.Chat = service.NewChatService(
		service.WithChatClient(a.clients.Chat),
		service.WithRetriever(a.Documents, s.ChatContextTopK),
		service.WithGenerationDefaults(s.LawTemperature, s.MaxResponseTokens),
		service.WithSystemPrompt(llm.SystemPrompt(llm.PromptParams{
			CalcTemperature: s.CalcTemperature,
			LawTemperature:  s.LawTemperature,
			ChunkSize:       s.Chunk.Size,
			ChunkOverlap:    s.Chunk.Overlap,
		}, taxcalc.Disclaimer)),
	)

	return a, nil
}

// Close releases everything New opened.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close(ctx))
	}
	if a.clients != nil {
		errs = append(errs, a.clients.Close())
	}
	if a.sqlite != nil {
		errs = append(errs, a.sqlite.Close())
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Postgres connection established")
	return pool, nil
}
