package alt

// DocumentHTML is the document type the filter runs on.
const DocumentHTML = "html"

// Context is what the host knows about the render being filtered.
type Context struct {
	SiteRender   bool   `json:"siteRender"`   // site-facing render, not an admin or API response
	DocumentType string `json:"documentType"` // "html" for HTML documents
	EditorActive bool   `json:"editorActive"` // a rich-text editor is present on the page
	Guest        bool   `json:"guest"`        // no authenticated user
	Component    string `json:"component"`    // active component identifier, e.g. "com_content"
}

// ShouldProcess decides whether a render is filtered at all. Rules are
// checked in order and the first one that matches stops processing.
func ShouldProcess(ctx Context, opt Options) bool {
	if !ctx.SiteRender || ctx.DocumentType != DocumentHTML {
		return false
	}
	if opt.ExcludeEditor && ctx.EditorActive {
		return false
	}
	if opt.ExcludeUser && !ctx.Guest {
		return false
	}
	if list := opt.Components(); len(list) > 0 && componentExcluded(ctx.Component, list, opt.ExcludeComponentsToggle) {
		return false
	}
	return true
}

// componentExcluded treats list as a deny list, or as an allow list when
// toggle is set.
func componentExcluded(component string, list []string, toggle bool) bool {
	found := false
	for _, c := range list {
		if c == component {
			found = true
			break
		}
	}
	if toggle {
		return !found
	}
	return found
}
