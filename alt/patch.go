package alt

import "strings"

// Replacement pairs a matched tag with its rewritten text.
type Replacement struct {
	Original string
	Updated  string
}

// Patch substitutes every replacement into doc, in order, replacing the
// first literal occurrence of Original at or after offset from.
//
// The original tag text is the search key. When two matched tags are byte
// for byte identical only the first occurrence is rewritten: a repeated key
// is dropped instead of hitting the next copy.
func Patch(doc string, from int, reps []Replacement) string {
	if len(reps) == 0 {
		return doc
	}
	if from < 0 || from > len(doc) {
		from = 0
	}
	seen := make(map[string]bool, len(reps))
	for _, r := range reps {
		if r.Original == "" || r.Original == r.Updated || seen[r.Original] {
			continue
		}
		seen[r.Original] = true
		i := strings.Index(doc[from:], r.Original)
		if i < 0 {
			continue
		}
		i += from
		doc = doc[:i] + r.Updated + doc[i+len(r.Original):]
	}
	return doc
}
