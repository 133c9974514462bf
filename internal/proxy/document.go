package proxy

import (
	"mime"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoalt/alt"
)

// page adapts one rendered response to alt.Host.
type page struct {
	body  string
	title string
	ctx   alt.Context
}

// newPage inspects a response about to be sent for r. respHeader is the
// upstream response header, nil for static files.
func (s *Server) newPage(r *http.Request, contentType, body string, respHeader http.Header) *page {
	p := &page{body: body}
	p.ctx = alt.Context{
		SiteRender:   s.isSiteRender(r),
		DocumentType: documentType(contentType),
		Guest:        s.session.Guest(r),
		Component:    s.session.Component(r),
	}
	if respHeader != nil {
		if c := cleanComponent(respHeader.Get(componentHeader)); c != "" {
			p.ctx.Component = c
		}
	}
	if p.ctx.DocumentType != alt.DocumentHTML || body == "" {
		return p
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		s.logger.Printf("FILTER %s: parse: %v", r.URL.Path, err)
		return p
	}
	p.title = strings.TrimSpace(doc.Find("head title").First().Text())
	p.ctx.EditorActive = s.editor.Active(doc)
	return p
}

func (p *page) Body() string { return p.body }
func (p *page) SetBody(body string) { p.body = body }
func (p *page) Title() string { return p.title }
func (p *page) Context() alt.Context { return p.ctx }

// documentType maps a Content-Type header onto the render document type.
func documentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case "text/html", "application/xhtml+xml":
		return alt.DocumentHTML
	}
	if i := strings.IndexByte(mt, '/'); i >= 0 {
		return mt[i+1:]
	}
	return mt
}
