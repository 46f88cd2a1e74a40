package handlers

import (
	"github.com/gin-gonic/gin"
)

// Error codes returned in the "error.code" field.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidID        = "INVALID_ID"
	CodeNotFound         = "NOT_FOUND"
	CodeMissingFile      = "MISSING_FILE"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidFileType  = "INVALID_FILE_TYPE"
	CodeIngestFailed     = "INGEST_FAILED"
	CodeGenerationFailed = "GENERATION_FAILED"
	CodeChatFailed       = "CHAT_FAILED"
	CodeSearchFailed     = "SEARCH_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}
