package alt

import (
	"fmt"
	"strings"
)

// Outcome is what the rewriter did with one tag.
type Outcome int

const (
	Unchanged   Outcome = iota // eligible, nothing to add
	Changed                    // at least one attribute written
	SkippedAlt                 // alt present and overwrite disabled
	SkippedMask                // src matched an exclusion mask
)

func (o Outcome) String() string {
	switch o {
	case Changed:
		return "changed"
	case SkippedAlt:
		return "skipped-alt"
	case SkippedMask:
		return "skipped-mask"
	default:
		return "unchanged"
	}
}

// MarshalText renders the outcome by name in JSON reports.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText parses an outcome name. Unknown names are an error.
func (o *Outcome) UnmarshalText(b []byte) error {
	for _, c := range []Outcome{Unchanged, Changed, SkippedAlt, SkippedMask} {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Rewriter applies the per-tag attribute edits. It holds no per-render
// state and can be shared by concurrent renders.
type Rewriter struct {
	opts  Options
	masks []string
	sizer *SizeAnnotator
}

// NewRewriter prepares a rewriter for opt. sizer may be nil when opt.AddSize
// is off.
func NewRewriter(opt Options, sizer *SizeAnnotator) *Rewriter {
	masks := opt.Masks()
	for i, m := range masks {
		masks[i] = strings.ToLower(m)
	}
	return &Rewriter{opts: opt, masks: masks, sizer: sizer}
}

// Rewrite returns the replacement text for m. text is the escaped page
// title (see TitleText). The returned string equals m.Tag unless the
// outcome is Changed.
func (r *Rewriter) Rewrite(m Match, text string) (string, Outcome) {
	hasAlt := altPattern.MatchString(m.Attrs)
	if hasAlt && !r.opts.OverwriteImages {
		return m.Tag, SkippedAlt
	}
	src := srcValue(m.Attrs)
	if r.masked(src) {
		return m.Tag, SkippedMask
	}
	t, ok := parseTag(m.Tag)
	if !ok {
		return m.Tag, Unchanged
	}

	if r.opts.EditImages >= EditAlt {
		if hasAlt {
			t.replace(altPattern, "alt", text)
		} else {
			t.add("alt", text)
		}
	}
	if r.opts.EditImages == EditAltTitle {
		switch {
		case t.has(titlePattern) && !r.opts.OverwriteImages:
			// keep the author's title
		case t.has(titlePattern):
			t.replace(titlePattern, "title", text)
		default:
			t.add("title", text)
		}
	}
	if r.opts.AddSize && r.sizer != nil {
		r.sizer.annotate(t, src)
	}

	out := t.String()
	if out == m.Tag {
		return m.Tag, Unchanged
	}
	return out, Changed
}

func (r *Rewriter) masked(src string) bool {
	if len(r.masks) == 0 {
		return false
	}
	lower := strings.ToLower(src)
	for _, m := range r.masks {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
