package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"autoalt/alt"
)

// maxFilterBody bounds the HTML bodies read into memory for filtering.
// Larger responses are passed through untouched.
const maxFilterBody = 16 << 20

func (s *Server) newUpstreamProxy(target *url.URL) *httputil.ReverseProxy {
	rp := httputil.NewSingleHostReverseProxy(target)
	director := rp.Director
	rp.Director = func(req *http.Request) {
		host := req.Host
		director(req)
		req.Header.Set("X-Forwarded-Host", host)
		// The filter works on plain text.
		req.Header.Del("Accept-Encoding")
	}
	rp.ModifyResponse = s.filterResponse
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Printf("UPSTREAM %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return rp
}

// filterResponse rewrites text/html upstream responses in place.
func (s *Server) filterResponse(resp *http.Response) error {
	ct := resp.Header.Get("Content-Type")
	if documentType(ct) != alt.DocumentHTML || resp.Request == nil {
		return nil
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		s.logger.Printf("FILTER %s: skipping %s encoded body", resp.Request.URL.Path, enc)
		return nil
	}
	if resp.ContentLength > maxFilterBody {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFilterBody+1))
	if err != nil {
		resp.Body.Close()
		return fmt.Errorf("read upstream body: %w", err)
	}
	if len(body) > maxFilterBody {
		resp.Body = readCloser{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
		return nil
	}
	resp.Body.Close()
	opts, enabled := s.optionsFor(resp.Request.Host)
	out, rep := s.filterPage(resp.Request, opts, enabled, ct, string(body), resp.Header)
	if rep != nil && rep.Changed > 0 {
		resp.Header.Del("Etag")
		resp.Header.Del("Content-Md5")
	}
	resp.Body = io.NopCloser(strings.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))
	return nil
}

// serveBrowser renders the upstream page in headless Chrome, filters the
// resulting DOM and writes it out.
func (s *Server) serveBrowser(w http.ResponseWriter, r *http.Request) {
	target := *s.cfg.Upstream
	target.Path = singleJoin(s.cfg.Upstream.Path, r.URL.Path)
	target.RawQuery = r.URL.RawQuery

	hdr := r.Header.Clone()
	hdr.Set("X-Forwarded-Host", r.Host)
	rendered, err := s.browser.Render(r.Context(), target.String(), hdr)
	if err != nil {
		s.logger.Printf("RENDER %s: %v", target.String(), err)
		http.Error(w, "render failed", http.StatusBadGateway)
		return
	}
	ct := rendered.Header.Get("Content-Type")
	opts, enabled := s.optionsFor(r.Host)
	out, _ := s.filterPage(r, opts, enabled, ct, rendered.HTML, rendered.Header)
	for k, vs := range rendered.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(rendered.Status)
	io.WriteString(w, out)
}

func singleJoin(a, b string) string {
	switch {
	case strings.HasSuffix(a, "/") && strings.HasPrefix(b, "/"):
		return a + b[1:]
	case !strings.HasSuffix(a, "/") && !strings.HasPrefix(b, "/"):
		return a + "/" + b
	}
	return a + b
}

type readCloser struct {
	io.Reader
	io.Closer
}
