// Package extract converts raw HTML payloads into clean plain text for
// detection scoring and clause classification.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minInputLength is the smallest HTML payload worth extracting from.
const minInputLength = 50

var (
	whitespaceRe = regexp.MustCompile(`[ \t\r\f]+`)
	blankRunRe   = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// legalLineKeywords keeps short lines that still carry legal signal.
var legalLineKeywords = []string{
	"copyright", "terms", "privacy", "policy", "agreement", "license",
	"disclaimer", "legal", "gdpr", "ccpa", "cookie",
}

// CleanText extracts readable text from an HTML document fetched from
// pageURL. Readability-style main-content extraction is tried first; when it
// fails or yields too little, the full document text is collected with
// boilerplate elements stripped. Returns "" when nothing useful can be
// extracted.
func CleanText(htmlContent, pageURL string) string {
	if len(strings.TrimSpace(htmlContent)) < minInputLength {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		base = &url.URL{Scheme: "http", Host: "localhost"}
	}

	if article, err := readability.FromReader(strings.NewReader(htmlContent), base); err == nil {
		if text := cleanText(article.TextContent); len(text) > 50 {
			return text
		}
	}

	if text := cleanText(documentText(htmlContent)); len(text) > 30 {
		return text
	}
	return ""
}

// documentText walks the parsed DOM collecting text, skipping script, style,
// and navigation chrome.
func documentText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// Last resort: strip tags lexically.
		return regexp.MustCompile(`<[^>]+>`).ReplaceAllString(htmlContent, " ")
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Header, atom.Footer, atom.Aside, atom.Iframe:
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}

// cleanText normalizes whitespace and drops noise lines, keeping short lines
// that contain legal keywords.
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 5 || hasLegalKeyword(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func hasLegalKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range legalLineKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
