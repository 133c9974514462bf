package proxy

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// editorDetector reports whether a rendered page carries a rich-text
// editor, matching the configured CSS selectors.
type editorDetector struct {
	sel cascadia.Selector
}

func newEditorDetector(selectors []string) (*editorDetector, error) {
	list := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		return &editorDetector{}, nil
	}
	sel, err := cascadia.Compile(strings.Join(list, ", "))
	if err != nil {
		return nil, fmt.Errorf("editor selectors: %w", err)
	}
	return &editorDetector{sel: sel}, nil
}

func (d *editorDetector) Active(doc *goquery.Document) bool {
	if d == nil || d.sel == nil || doc == nil {
		return false
	}
	return doc.FindMatcher(d.sel).Length() > 0
}
