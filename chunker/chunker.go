// Package chunker splits cleaned document text into overlapping windows for
// embedding.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfiguration is returned when size and overlap cannot make
// forward progress.
var ErrInvalidConfiguration = errors.New("invalid chunk configuration")

// Config holds the window size and the overlap between consecutive windows,
// both in characters.
type Config struct {
	Size    int `json:"size" yaml:"size"`
	Overlap int `json:"overlap" yaml:"overlap"`
}

// Validate requires Size > 0 and 0 <= Overlap < Size.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfiguration, c.Size)
	case c.Overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfiguration, c.Overlap)
	case c.Overlap >= c.Size:
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidConfiguration, c.Overlap, c.Size)
	}
	return nil
}

// Stride is how far each window advances.
func (c Config) Stride() int {
	return c.Size - c.Overlap
}

// TextChunk is one window of the source text. Offset is measured in
// characters from the start of the text.
type TextChunk struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// CleanText collapses every run of whitespace, including newlines, into a
// single space and trims both ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Split cuts text into windows of at most size characters, each starting
// size-overlap characters after the previous one. Splitting stops once the
// next start would be at or past the end of the text, so the final window
// may lie entirely inside its predecessor.
func Split(text string, size, overlap int) ([]TextChunk, error) {
	cfg := Config{Size: size, Overlap: overlap}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.Split(text), nil
}

// Split is the method form of Split for an already validated Config.
func (c Config) Split(text string) []TextChunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	stride := c.Stride()

	chunks := make([]TextChunk, 0, n/stride+1)
	for start := 0; start < n; start += stride {
		end := min(start+c.Size, n)
		chunks = append(chunks, TextChunk{
			Index:  len(chunks),
			Offset: start,
			Text:   string(runes[start:end]),
		})
	}
	return chunks
}

// ChunkText returns only the text of each window.
func ChunkText(text string, size, overlap int) ([]string, error) {
	chunks, err := Split(text, size, overlap)
	if err != nil {
		return nil, err
	}
	return Texts(chunks), nil
}

// Texts extracts the text of each chunk in order.
func Texts(chunks []TextChunk) []string {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Reconstruct rebuilds the source text from the chunks produced by Split.
func Reconstruct(chunks []TextChunk) string {
	var sb strings.Builder
	covered := 0
	for _, c := range chunks {
		runes := []rune(c.Text)
		end := c.Offset + len(runes)
		if end <= covered {
			continue
		}
		skip := max(covered-c.Offset, 0)
		sb.WriteString(string(runes[skip:]))
		covered = end
	}
	return sb.String()
}
