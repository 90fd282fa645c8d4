package gather

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanSnippet strips HTML markup from a scraper snippet and collapses
// whitespace. Scrapers frequently return fragments with <b> highlight tags
// or entity-encoded text; evidence snippets must be plain text before they
// reach prompts and explanations.
func CleanSnippet(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Fast path: no markup present
	if !strings.ContainsAny(s, "<&") {
		return collapseWhitespace(s)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
			b.WriteByte(' ')
		}
	}

	return collapseWhitespace(b.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
