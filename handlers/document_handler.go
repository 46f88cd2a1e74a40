package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxlaw-backend/middleware"
	"taxlaw-backend/service"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 1 << 20

// DocumentHandler handles upload, retrieval and search of documents
type DocumentHandler struct {
	docService  *service.DocumentService
	maxFileSize int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService *service.DocumentService, maxFileSize int64) *DocumentHandler {
	if maxFileSize <= 0 {
		maxFileSize = 20 << 20
	}
	return &DocumentHandler{
		docService:  docService,
		maxFileSize: maxFileSize,
	}
}

// Upload handles POST /api/upload
func (h *DocumentHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge, "File exceeds the upload limit")
			return
		}
		respondError(c, http.StatusBadRequest, CodeMissingFile, "File is required")
		return
	}

	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
			"File exceeds the upload limit of "+strconv.FormatInt(h.maxFileSize, 10)+" bytes")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeMissingFile, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeMissingFile, "Failed to read uploaded file")
		return
	}

	result, err := h.docService.Ingest(c.Request.Context(), service.IngestRequest{
		Filename: fileHeader.Filename,
		Content:  content,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			respondError(c, http.StatusBadRequest, CodeInvalidFileType, err.Error())
		case errors.Is(err, service.ErrEmptyDocument):
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		default:
			middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to ingest upload",
				zap.String("filename", fileHeader.Filename), zap.Error(err))
			respondError(c, http.StatusInternalServerError, CodeIngestFailed, "Failed to ingest document")
		}
		return
	}

	respondData(c, http.StatusCreated, result)
}

// ListDocuments handles GET /api/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	docs, err := h.docService.ListDocuments(c.Request.Context(), limit)
	if err != nil {
		middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to list documents", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to list documents")
		return
	}

	respondData(c, http.StatusOK, gin.H{"documents": docs})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidID, "Invalid document ID format")
		return
	}

	doc, err := h.docService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.documentError(c, id, err)
		return
	}

	respondData(c, http.StatusOK, doc)
}

// DownloadDocument handles GET /api/documents/:id/content and streams the
// decrypted original upload.
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidID, "Invalid document ID format")
		return
	}

	doc, rc, err := h.docService.OpenDocument(c.Request.Context(), id)
	if err != nil {
		h.documentError(c, id, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename})
	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *DocumentHandler) documentError(c *gin.Context, id uuid.UUID, err error) {
	if errors.Is(err, service.ErrDocumentNotFound) {
		respondError(c, http.StatusNotFound, CodeNotFound, "Document not found")
		return
	}
	middleware.LogWithCorrelationID(c.Request.Context()).Error("Failed to load document",
		zap.String("document_id", id.String()), zap.Error(err))
	respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to load document")
}

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

// Search handles POST /api/search
func (h *DocumentHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if req.TopK < 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "top_k must not be negative")
		return
	}

	matches, err := h.docService.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
			return
		}
		middleware.LogWithCorrelationID(c.Request.Context()).Error("Search failed", zap.Error(err))
		respondError(c, http.StatusBadGateway, CodeSearchFailed, "Search failed")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"matches": matches,
		"sources": service.Sources(matches),
	})
}
