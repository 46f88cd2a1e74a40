package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded and indexed file
type Document struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"-"`
	Chunks      int       `json:"chunks"`
	Preview     string    `json:"preview"`
	CreatedAt   time.Time `json:"created_at"`
}
