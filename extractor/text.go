package extractor

import (
	"bytes"
	"encoding/json"
	"strings"
)

// extractText decodes content as UTF-8, dropping invalid byte sequences.
func extractText(content []byte) (string, error) {
	return strings.ToValidUTF8(string(content), ""), nil
}

// extractJSON pretty-prints a JSON document; invalid JSON is returned as text.
func extractJSON(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		return extractText(content)
	}
	return buf.String(), nil
}
