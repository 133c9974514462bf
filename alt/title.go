package alt

import (
	"strings"

	"golang.org/x/net/html"
)

// attrEscaper escapes & " ' < > so the value is safe in either quote style.
// Single quotes become &#039;, not the &#39; of html.EscapeString.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#039;",
	"<", "&lt;",
	">", "&gt;",
)

// TitleText turns a document title into the attribute value written onto
// every image of one render: markup stripped, trimmed, quotes escaped.
func TitleText(title string) string {
	return attrEscaper.Replace(strings.TrimSpace(stripTags(title)))
}

// stripTags drops tags and comments and keeps text verbatim. Entities are
// not decoded.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}
