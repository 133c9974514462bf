package proxy

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"autoalt/alt"
	"autoalt/internal/config"
)

const htmlContentType = "text/html; charset=utf-8"

var errNotFound = errors.New("not found")

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Mode == config.ModeUpstream {
		if s.browser != nil && wantsBrowser(r) {
			s.serveBrowser(w, r)
			return
		}
		s.upstream.ServeHTTP(w, r)
		return
	}
	s.serveStatic(w, r)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Connection", "close")
	io.WriteString(w, "pong\n")
}

// serveStatic serves the site root of the request host. HTML files go
// through the filter, everything else is served as is.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	opts, enabled := s.optionsFor(r.Host)
	file, info, err := staticFile(opts.SiteRoot, r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !isHTMLFile(file) {
		http.ServeFile(w, r, file)
		return
	}
	data, err := os.ReadFile(file)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	out, _ := s.filterPage(r, opts, enabled, htmlContentType, string(data), nil)
	w.Header().Set("Content-Type", htmlContentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader([]byte(out)))
}

// filterPage runs one filter pass over body when the site is enabled.
func (s *Server) filterPage(r *http.Request, opts alt.Options, enabled bool, contentType, body string, respHeader http.Header) (string, *alt.Report) {
	if !enabled {
		s.logger.Printf("FILTER %s%s disabled for site", r.Host, r.URL.Path)
		return body, nil
	}
	p := s.newPage(r, contentType, body, respHeader)
	rep := alt.New(opts, s.prober).Process(p)
	if rep == nil {
		s.logger.Printf("FILTER %s%s skipped", r.Host, r.URL.Path)
		return body, nil
	}
	s.logger.Printf("FILTER %s%s title=%q images=%d changed=%d", r.Host, r.URL.Path, rep.Title, len(rep.Tags), rep.Changed)
	if s.cfg.Debug {
		dumpReport(s.logger, rep)
	}
	return p.Body(), rep
}

// staticFile maps a URL path to a regular file below root. Directories
// resolve to their index.html.
func staticFile(root, urlPath string) (string, os.FileInfo, error) {
	if root == "" {
		return "", nil, errNotFound
	}
	clean := path.Clean("/" + urlPath)
	file := filepath.Join(filepath.Clean(root), filepath.FromSlash(clean))
	info, err := os.Stat(file)
	if err != nil {
		return "", nil, errNotFound
	}
	if info.IsDir() {
		file = filepath.Join(file, "index.html")
		if info, err = os.Stat(file); err != nil {
			return "", nil, errNotFound
		}
	}
	if !info.Mode().IsRegular() {
		return "", nil, errNotFound
	}
	return file, info, nil
}

func isHTMLFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// wantsBrowser reports whether r is a page navigation worth rendering in
// the browser. Assets and form posts go straight to the upstream.
func wantsBrowser(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
