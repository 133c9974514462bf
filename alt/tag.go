package alt

import (
	"regexp"
	"strings"
)

var (
	headPattern   = regexp.MustCompile(`(?i)^<img\s+`)
	altPattern    = regexp.MustCompile(`(?i)\balt\s*=\s*["'].*?["']`)
	titlePattern  = regexp.MustCompile(`(?i)\btitle\s*=\s*["'].*?["']`)
	srcPattern    = regexp.MustCompile(`(?i)\bsrc\s*=\s*["']([^"']+)["']`)
	widthPattern  = regexp.MustCompile(`(?i)\bwidth\s*=\s*["']\d+["']`)
	heightPattern = regexp.MustCompile(`(?i)\bheight\s*=\s*["']\d+["']`)
)

type attr struct {
	name, value string
}

func (a attr) String() string { return a.name + `="` + a.value + `"` }

// tag is an image tag split into its name, the attributes added by the
// filter, and the original attribute text. Added attributes serialize right
// after the tag name in the order they were added.
type tag struct {
	name  string // "<img" as written in the source
	head  string // name plus the whitespace that followed it
	added []attr
	rest  string
}

func parseTag(text string) (*tag, bool) {
	loc := headPattern.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	return &tag{name: text[:4], head: text[:loc[1]], rest: text[loc[1]:]}, true
}

func (t *tag) has(p *regexp.Regexp) bool { return p.MatchString(t.rest) }

func (t *tag) add(name, value string) { t.added = append(t.added, attr{name, value}) }

// replace rewrites the first attribute matched by p with name="value".
func (t *tag) replace(p *regexp.Regexp, name, value string) {
	loc := p.FindStringIndex(t.rest)
	if loc == nil {
		return
	}
	t.rest = t.rest[:loc[0]] + attr{name, value}.String() + t.rest[loc[1]:]
}

func (t *tag) String() string {
	if len(t.added) == 0 {
		return t.head + t.rest
	}
	var b strings.Builder
	b.WriteString(t.name)
	for _, a := range t.added {
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	b.WriteByte(' ')
	b.WriteString(t.rest)
	return b.String()
}

// srcValue returns the src attribute value found in attrs.
func srcValue(attrs string) string {
	m := srcPattern.FindStringSubmatch(attrs)
	if m == nil {
		return ""
	}
	return m[1]
}
