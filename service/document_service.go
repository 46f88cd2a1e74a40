package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxlaw-backend/chunker"
	"taxlaw-backend/extractor"
	"taxlaw-backend/llm"
	"taxlaw-backend/middleware"
	"taxlaw-backend/models"
	"taxlaw-backend/repository"
	"taxlaw-backend/storage"
	"taxlaw-backend/vectorindex"
)

const (
	// EmbedBatchSize is the number of chunks sent per embedding call.
	EmbedBatchSize = 96
	// DefaultSearchTopK is used when a search asks for no particular count.
	DefaultSearchTopK = 5
	// MaxSearchTopK bounds a single search.
	MaxSearchTopK = 50

	uploadPreviewLen = 250
	lawPreviewLen    = 200
)

// DocumentService ingests documents into the vector index and blob storage
type DocumentService struct {
	docRepo  DocumentRepository
	storage  storage.Storage
	embedder llm.Embedder
	index    vectorindex.Index
	chunks   chunker.Config
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// WithDocumentRepository sets the document repository
func WithDocumentRepository(repo DocumentRepository) DocumentServiceOption {
	return func(s *DocumentService) {
		s.docRepo = repo
	}
}

// WithStorage sets the blob storage for raw uploads
func WithStorage(st storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = st
	}
}

// WithEmbedder sets the embedding client
func WithEmbedder(e llm.Embedder) DocumentServiceOption {
	return func(s *DocumentService) {
		s.embedder = e
	}
}

// WithIndex sets the vector index
func WithIndex(idx vectorindex.Index) DocumentServiceOption {
	return func(s *DocumentService) {
		s.index = idx
	}
}

// WithChunkConfig sets chunk size and overlap
func WithChunkConfig(cfg chunker.Config) DocumentServiceOption {
	return func(s *DocumentService) {
		s.chunks = cfg
	}
}

// NewDocumentService creates a document service. The chunk configuration is
// validated here so a bad size/overlap pair fails at startup.
func NewDocumentService(opts ...DocumentServiceOption) (*DocumentService, error) {
	s := &DocumentService{
		chunks: chunker.Config{Size: 1000, Overlap: 400},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.chunks.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// IngestRequest is an uploaded file.
type IngestRequest struct {
	Filename string
	Content  []byte
}

// IngestResult describes what was indexed and stored.
type IngestResult struct {
	Document    *models.Document       `json:"document"`
	Filename    string                 `json:"filename"`
	Preview     string                 `json:"extracted_text_preview"`
	Chunks      int                    `json:"chunks"`
	Indexed     bool                   `json:"indexed"`
	Spreadsheet *extractor.Spreadsheet `json:"spreadsheet,omitempty"`
	Status      string                 `json:"status"`
}

// Ingest extracts text from the upload, chunks and embeds it, stores the
// encrypted original and its metadata, and finally upserts the chunks as
// "<filename>-<i>". Vectors are written last so a failed upload never leaves
// searchable chunks behind.
func (s *DocumentService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	log := middleware.LogWithCorrelationID(ctx)

	if !extractor.Supported(req.Filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, req.Filename)
	}
	if len(req.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	raw, err := extractor.ExtractText(req.Content, req.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", req.Filename, err)
	}
	text := chunker.CleanText(raw)
	chunks := s.chunks.Split(text)

	records, err := s.embedChunks(ctx, req.Filename, chunks)
	if err != nil {
		return nil, err
	}

	var sheet *extractor.Spreadsheet
	if extractor.IsSpreadsheet(req.Filename) {
		sheet, err = extractor.ParseSpreadsheet(req.Content, req.Filename)
		if err != nil {
			log.Warn("Spreadsheet parse failed", zap.String("filename", req.Filename), zap.Error(err))
			sheet = nil
		}
	}

	doc := &models.Document{
		ID:       uuid.New(),
		Filename: req.Filename,
		FileType: extractor.FileType(req.Filename),
		MimeType: storage.ContentType(req.Filename),
		Size:     int64(len(req.Content)),
		Chunks:   len(chunks),
		Preview:  truncateRunes(text, uploadPreviewLen),
	}

	if s.storage != nil {
		path, err := s.storage.Upload(ctx, doc.ID, req.Filename, bytes.NewReader(req.Content))
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		doc.StoragePath = path
	}

	if s.docRepo != nil {
		if err := s.docRepo.Create(ctx, doc); err != nil {
			if doc.StoragePath != "" {
				if delErr := s.storage.Delete(ctx, doc.StoragePath); delErr != nil {
					log.Warn("Failed to remove orphaned blob", zap.String("path", doc.StoragePath), zap.Error(delErr))
				}
			}
			return nil, fmt.Errorf("failed to save document: %w", err)
		}
	}

	indexed, err := s.upsert(ctx, req.Filename, records)
	if err != nil {
		log.Error("Document saved but not indexed",
			zap.String("document_id", doc.ID.String()),
			zap.Int("chunks", len(records)),
			zap.Error(err),
		)
		return nil, err
	}

	log.Info("Document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("file_type", doc.FileType),
		zap.Int("chunks", len(chunks)),
		zap.Bool("indexed", indexed),
	)

	return &IngestResult{
		Document:    doc,
		Filename:    req.Filename,
		Preview:     doc.Preview,
		Chunks:      len(chunks),
		Indexed:     indexed,
		Spreadsheet: sheet,
		Status:      "ingested",
	}, nil
}

// IndexText chunks and indexes already extracted text under source. It is
// used for statute files loaded from disk and returns the chunk count.
func (s *DocumentService) IndexText(ctx context.Context, source, text string) (int, error) {
	chunks := s.chunks.Split(chunker.CleanText(text))
	if _, err := s.indexChunks(ctx, source, chunks); err != nil {
		return 0, err
	}
	if len(chunks) > 0 {
		middleware.LogWithCorrelationID(ctx).Debug("Indexed text",
			zap.String("source", source),
			zap.Int("chunks", len(chunks)),
			zap.String("preview", truncateRunes(chunks[0].Text, lawPreviewLen)),
		)
	}
	return len(chunks), nil
}

// indexChunks embeds chunks in batches and upserts them. It reports false
// when no embedder or index is configured.
func (s *DocumentService) indexChunks(ctx context.Context, source string, chunks []chunker.TextChunk) (bool, error) {
	records, err := s.embedChunks(ctx, source, chunks)
	if err != nil {
		return false, err
	}
	return s.upsert(ctx, source, records)
}

// embedChunks turns chunks into index records, embedding in batches of
// EmbedBatchSize. It returns nil when no embedder or index is configured.
func (s *DocumentService) embedChunks(ctx context.Context, source string, chunks []chunker.TextChunk) ([]vectorindex.Record, error) {
	if s.embedder == nil || s.index == nil {
		return nil, nil
	}

	records := make([]vectorindex.Record, 0, len(chunks))
	for start := 0; start < len(chunks); start += EmbedBatchSize {
		batch := chunks[start:min(start+EmbedBatchSize, len(chunks))]

		vectors, err := s.embedder.Embed(ctx, chunker.Texts(batch))
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks of %s: %w", source, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("failed to embed chunks of %s: got %d vectors for %d chunks", source, len(vectors), len(batch))
		}

		for i, c := range batch {
			records = append(records, vectorindex.Record{
				ID:         fmt.Sprintf("%s-%d", source, c.Index),
				Source:     source,
				ChunkIndex: c.Index,
				Offset:     c.Offset,
				Content:    c.Text,
				Vector:     vectors[i],
			})
		}
	}
	return records, nil
}

// upsert writes records in batches of EmbedBatchSize.
func (s *DocumentService) upsert(ctx context.Context, source string, records []vectorindex.Record) (bool, error) {
	if s.embedder == nil || s.index == nil {
		return false, nil
	}
	for start := 0; start < len(records); start += EmbedBatchSize {
		if err := s.index.Upsert(ctx, records[start:min(start+EmbedBatchSize, len(records))]); err != nil {
			return false, fmt.Errorf("failed to index chunks of %s: %w", source, err)
		}
	}
	return true, nil
}

// Search embeds query and returns the closest chunks. topK <= 0 means
// DefaultSearchTopK.
func (s *DocumentService) Search(ctx context.Context, query string, topK int) ([]vectorindex.Match, error) {
	query = chunker.CleanText(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if s.embedder == nil || s.index == nil {
		return []vectorindex.Match{}, nil
	}
	if topK <= 0 {
		topK = DefaultSearchTopK
	}
	topK = min(topK, MaxSearchTopK)

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("failed to embed query: got %d vectors", len(vectors))
	}

	matches, err := s.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	if matches == nil {
		matches = []vectorindex.Match{}
	}
	return matches, nil
}

// Sources lists the distinct sources of matches in rank order.
func Sources(matches []vectorindex.Match) []string {
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Source == "" || seen[m.Source] {
			continue
		}
		seen[m.Source] = true
		out = append(out, m.Source)
	}
	return out
}

// GetDocument loads document metadata.
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the newest documents first.
func (s *DocumentService) ListDocuments(ctx context.Context, limit int) ([]*models.Document, error) {
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}
	return s.docRepo.List(ctx, limit)
}

// OpenDocument returns the metadata and the decrypted original upload. The
// caller closes the reader.
func (s *DocumentService) OpenDocument(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.storage == nil || doc.StoragePath == "" {
		return nil, nil, fmt.Errorf("%w: %s has no stored content", ErrDocumentNotFound, id)
	}

	rc, err := s.storage.Download(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to read document: %w", err)
	}
	return doc, rc, nil
}
