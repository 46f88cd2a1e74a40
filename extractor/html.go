package extractor

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// extractHTML returns the visible text of an HTML page. Script and style
// elements are skipped.
func extractHTML(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return extractText(content)
	}

	var sb strings.Builder
	walkText(doc, &sb)
	return strings.TrimSpace(sb.String()), nil
}

func walkText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb)
	}
}
