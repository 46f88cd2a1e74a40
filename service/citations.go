package service

import (
	"regexp"
	"strings"
)

var citationTag = regexp.MustCompile(`\[((?:Section|Rule|SRO)\b[^\[\]]*)\]`)

var citationTokens = []string{"Section", "Rule", "SRO"}

// ExtractCitations returns the bracketed legal references in answer, such as
// "[Section 44(2)(b)]", in order of first appearance. When the answer has no
// tags it falls back to naming which of Section, Rule and SRO occur at all.
func ExtractCitations(answer string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, m := range citationTag.FindAllStringSubmatch(answer, -1) {
		ref := strings.Join(strings.Fields(m[1]), " ")
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	if len(out) > 0 {
		return out
	}

	for _, token := range citationTokens {
		if strings.Contains(answer, token) {
			out = append(out, token)
		}
	}
	return out
}
