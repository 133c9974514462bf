package alt

import "regexp"

var (
	// Greedy: the slice runs to the last closing body tag.
	bodyPattern = regexp.MustCompile(`(?is)<body[^>]*>.*</body>`)
	// Attributes stop at the first '>' and must carry a quoted src value.
	imgPattern = regexp.MustCompile(`(?i)<img\s+([^>]*src\s*=\s*['"][^'"]+['"][^>]*)>`)
)

// Match is one image tag found in a document.
type Match struct {
	Tag    string // full tag text, "<img" through the first '>'
	Attrs  string // attribute text between the tag name and '>'
	Offset int    // byte offset of Tag in the document
}

// BodySlice returns the <body>…</body> part of doc and its offset. Without
// a body element the whole document is returned.
func BodySlice(doc string) (string, int) {
	loc := bodyPattern.FindStringIndex(doc)
	if loc == nil {
		return doc, 0
	}
	return doc[loc[0]:loc[1]], loc[0]
}

// FindImages lists the image tags of the body slice of doc, left to right.
// Tags without a src attribute are not reported.
func FindImages(doc string) []Match {
	body, base := BodySlice(doc)
	locs := imgPattern.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, l := range locs {
		out = append(out, Match{
			Tag:    body[l[0]:l[1]],
			Attrs:  body[l[2]:l[3]],
			Offset: base + l[0],
		})
	}
	return out
}
