package reddit

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const excerptRunes = 280

// excerpt returns a short plain-text preview of a self post. Reddit sends
// selftext_html entity-escaped, so it is unescaped before parsing.
func excerpt(escapedHTML, plain string, limit int) string {
	text := plain
	if escapedHTML != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(escapedHTML)))
		if err == nil {
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
