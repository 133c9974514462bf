// Package alt rewrites the <img> tags of a rendered HTML document, adding
// alt, title and dimension attributes derived from the page title.
//
// The package works on tag-level text patterns, not on a DOM. Everything
// outside the rewritten tags is returned byte for byte.
package alt

// Host is the render lifecycle the filter plugs into.
type Host interface {
	Body() string
	SetBody(body string)
	Title() string
	Context() Context
}

// TagReport records what happened to one image tag.
type TagReport struct {
	Offset   int     `json:"offset"`
	Src      string  `json:"src"`
	Outcome  Outcome `json:"outcome"`
	Original string  `json:"original"`
	Updated  string  `json:"updated,omitempty"`
}

// Report summarises one filter pass.
type Report struct {
	Title   string      `json:"title"`
	Tags    []TagReport `json:"tags"`
	Changed int         `json:"changed"`
}

// Replacements returns the substitutions of the pass in discovery order.
func (r *Report) Replacements() []Replacement {
	if r == nil {
		return nil
	}
	out := make([]Replacement, 0, r.Changed)
	for _, t := range r.Tags {
		if t.Outcome == Changed {
			out = append(out, Replacement{Original: t.Original, Updated: t.Updated})
		}
	}
	return out
}

// Filter is the configured render hook.
type Filter struct {
	opts     Options
	rewriter *Rewriter
}

// New builds a filter. A nil prober reads image headers from disk.
func New(opt Options, p Prober) *Filter {
	var sizer *SizeAnnotator
	if opt.AddSize {
		sizer = NewSizeAnnotator(opt, p)
	}
	return &Filter{opts: opt, rewriter: NewRewriter(opt, sizer)}
}

// Options returns the options the filter was built with.
func (f *Filter) Options() Options { return f.opts }

// Process runs one pass over the host body. It returns nil when the gate
// stops processing or the body is empty; the body is only written back when
// a tag changed.
func (f *Filter) Process(h Host) *Report {
	if !ShouldProcess(h.Context(), f.opts) {
		return nil
	}
	body := h.Body()
	if body == "" {
		return nil
	}
	out, rep := f.Apply(body, h.Title())
	if out != body {
		h.SetBody(out)
	}
	return rep
}

// Apply rewrites doc using title as the page title, without consulting the
// gate.
func (f *Filter) Apply(doc, title string) (string, *Report) {
	text := TitleText(title)
	rep := &Report{Title: text}
	matches := FindImages(doc)
	if len(matches) == 0 {
		return doc, rep
	}
	for _, m := range matches {
		updated, outcome := f.rewriter.Rewrite(m, text)
		tr := TagReport{Offset: m.Offset, Src: srcValue(m.Attrs), Outcome: outcome, Original: m.Tag}
		if outcome == Changed {
			tr.Updated = updated
			rep.Changed++
		}
		rep.Tags = append(rep.Tags, tr)
	}
	_, from := BodySlice(doc)
	return Patch(doc, from, rep.Replacements()), rep
}
