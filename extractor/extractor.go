// Package extractor turns uploaded documents into plain text.
package extractor

import (
	"path/filepath"
	"strings"
)

// File types reported by FileType.
const (
	TypePDF  = "pdf"
	TypeCSV  = "csv"
	TypeXLSX = "xlsx"
	TypeHTML = "html"
	TypeJSON = "json"
	TypeText = "text"
)

var extTypes = map[string]string{
	".pdf":  TypePDF,
	".csv":  TypeCSV,
	".xlsx": TypeXLSX,
	".html": TypeHTML,
	".htm":  TypeHTML,
	".json": TypeJSON,
	".txt":  TypeText,
	".md":   TypeText,
	"":      TypeText,
}

// FileType classifies filename by extension. Unknown extensions are text.
func FileType(filename string) string {
	if t, ok := extTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return TypeText
}

// Supported reports whether the extension is one ExtractText understands.
func Supported(filename string) bool {
	_, ok := extTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// IsSpreadsheet reports whether ParseSpreadsheet can read filename.
func IsSpreadsheet(filename string) bool {
	t := FileType(filename)
	return t == TypeCSV || t == TypeXLSX
}

// ExtractText extracts plain text from file content based on the file extension.
// Falls back to treating content as plain text for unsupported formats.
func ExtractText(content []byte, filename string) (string, error) {
	switch FileType(filename) {
	case TypePDF:
		return extractPDF(content)
	case TypeHTML:
		return extractHTML(content)
	case TypeCSV:
		return extractCSV(content)
	case TypeXLSX:
		return extractXLSX(content)
	case TypeJSON:
		return extractJSON(content)
	default:
		return extractText(content)
	}
}
