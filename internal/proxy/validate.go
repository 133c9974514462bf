package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"autoalt/alt"
	"autoalt/internal/config"
)

type validateResult struct {
	Path    string      `json:"path"`
	Enabled bool        `json:"enabled"`
	Gate    bool        `json:"gate"`
	Context alt.Context `json:"context"`
	Report  *alt.Report `json:"report"`
	Checked time.Time   `json:"checked"`
}

// handleValidate is a dry run: it loads the unfiltered page for ?path= on
// the request host and reports what the filter would do with it, ignoring
// the gate for the report itself.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	req := r.Clone(r.Context())
	req.URL = &url.URL{Path: u.Path, RawQuery: u.RawQuery}
	req.RequestURI = ""

	ct, body, header, err := s.loadRaw(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	opts, enabled := s.optionsFor(r.Host)
	p := s.newPage(req, ct, body, header)
	_, rep := alt.New(opts, s.prober).Apply(body, p.Title())
	res := validateResult{
		Path:    u.RequestURI(),
		Enabled: enabled,
		Gate:    enabled && alt.ShouldProcess(p.Context(), opts),
		Context: p.Context(),
		Report:  rep,
		Checked: s.clock().UTC(),
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}

// loadRaw returns the unfiltered page for req with its content type.
func (s *Server) loadRaw(req *http.Request) (string, string, http.Header, error) {
	if s.cfg.Mode != config.ModeUpstream {
		opts, _ := s.optionsFor(req.Host)
		file, _, err := staticFile(opts.SiteRoot, req.URL.Path)
		if err != nil {
			return "", "", nil, fmt.Errorf("%s: %w", req.URL.Path, err)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", "", nil, fmt.Errorf("read %s: %w", req.URL.Path, err)
		}
		ct := "application/octet-stream"
		if isHTMLFile(file) {
			ct = htmlContentType
		}
		return ct, string(data), nil, nil
	}

	target := *s.cfg.Upstream
	target.Path = singleJoin(s.cfg.Upstream.Path, req.URL.Path)
	target.RawQuery = req.URL.RawQuery
	out, err := http.NewRequestWithContext(req.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		return "", "", nil, fmt.Errorf("build upstream request: %w", err)
	}
	for _, name := range []string{"Cookie", "Authorization", "User-Agent", "Accept-Language", componentHeader} {
		if v := req.Header.Get(name); v != "" {
			out.Header.Set(name, v)
		}
	}
	out.Host = req.Host
	out.Header.Set("X-Forwarded-Host", req.Host)
	resp, err := s.client.Do(out)
	if err != nil {
		return "", "", nil, fmt.Errorf("fetch upstream: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFilterBody))
	if err != nil {
		return "", "", nil, fmt.Errorf("read upstream body: %w", err)
	}
	return resp.Header.Get("Content-Type"), string(data), resp.Header, nil
}
