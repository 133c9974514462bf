package proxy

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"autoalt/alt"
	"autoalt/internal/config"
)

const (
	defaultSitesDir = "config/sites"
	controlPrefix   = "/_autoalt/"
)

// Config describes server wiring and runtime behaviour.
type Config struct {
	Mode            string   // config.ModeStatic or config.ModeUpstream
	Upstream        *url.URL // upstream mode only
	Render          string   // config.RenderDirect or config.RenderBrowser
	RenderTimeout   time.Duration
	SitesDir        string
	DimCacheEntries int
	AdminPaths      []string // path prefixes that are not site renders

	Filter          alt.Options
	Session         SessionOptions
	EditorSelectors []string

	Debug  bool
	Logger *log.Logger
	Clock  func() time.Time
}

// FromConfig maps the loaded configuration onto server wiring.
func FromConfig(c *config.Config, logger *log.Logger) (Config, error) {
	cfg := Config{
		Mode:            c.Server.Mode,
		Render:          c.Server.Render,
		RenderTimeout:   c.Server.RenderTimeout,
		SitesDir:        c.Server.SitesDir,
		DimCacheEntries: c.Server.DimCacheEntries,
		AdminPaths:      c.Server.AdminPaths,
		Filter:          c.Filter,
		Session: SessionOptions{
			Cookies:        c.Session.Cookies,
			JWTSecret:      []byte(c.Session.JWTSecret),
			ComponentParam: c.Session.ComponentParam,
		},
		EditorSelectors: c.Editor.Selectors,
		Debug:           c.Log.Debug,
		Logger:          logger,
	}
	if c.Server.Mode == config.ModeUpstream {
		u, err := url.Parse(c.Server.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Config{}, fmt.Errorf("upstream url %q: invalid", c.Server.Upstream)
		}
		cfg.Upstream = u
	}
	return cfg, nil
}

// Server exposes the HTTP handlers serving filtered pages.
type Server struct {
	cfg      Config
	mux      *http.ServeMux
	handler  http.Handler
	logger   *log.Logger
	sites    *siteConfigStore
	prober   *dimCache
	editor   *editorDetector
	session  *sessionResolver
	upstream *httputil.ReverseProxy
	browser  *browserRenderer
	client   *http.Client
	clock    func() time.Time
}

// New wires a new server with the provided configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SitesDir == "" {
		cfg.SitesDir = defaultSitesDir
	}
	if cfg.Mode == "" {
		cfg.Mode = config.ModeStatic
	}
	if cfg.Mode == config.ModeUpstream && cfg.Upstream == nil {
		return nil, fmt.Errorf("proxy: upstream mode without upstream url")
	}
	if err := cfg.Filter.Validate(); err != nil {
		return nil, err
	}
	editor, err := newEditorDetector(cfg.EditorSelectors)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  cfg.Logger,
		sites:   newSiteConfigStore(cfg.SitesDir, cfg.Logger),
		prober:  newDimCache(cfg.DimCacheEntries, alt.FileProber{}),
		editor:  editor,
		session: newSessionResolver(cfg.Session),
		client:  &http.Client{Timeout: 30 * time.Second},
		clock:   cfg.Clock,
	}
	if cfg.Mode == config.ModeUpstream {
		s.upstream = s.newUpstreamProxy(cfg.Upstream)
		if cfg.Render == config.RenderBrowser {
			s.browser = newBrowserRenderer(cfg.Logger, cfg.RenderTimeout)
		}
	}
	s.registerRoutes()
	s.handler = withLogging(s.logger, s.mux)
	return s, nil
}

// Watch reloads per-site overrides whenever the sites directory changes.
func (s *Server) Watch() error { return s.sites.Watch() }

// Close releases the watcher and the headless browser, if any.
func (s *Server) Close() error {
	if s.browser != nil {
		s.browser.Close()
	}
	return s.sites.Close()
}

// Handler exposes the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler { return s }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleSite)
	s.mux.HandleFunc(controlPrefix+"ping", s.handlePing)
	s.mux.HandleFunc(controlPrefix+"validate", s.handleValidate)
}

// optionsFor returns the filter options for a site host, with the overrides
// of its site config applied. Invalid overrides are ignored.
func (s *Server) optionsFor(host string) (alt.Options, bool) {
	base := s.cfg.Filter
	sc := s.sites.Find(host)
	if sc == nil {
		return base, true
	}
	if sc.Disabled {
		return base, false
	}
	opts := sc.Apply(base)
	if err := opts.Validate(); err != nil {
		s.logger.Printf("SITE %s: ignoring overrides: %v", host, err)
		return base, true
	}
	return opts, true
}

func (s *Server) isSiteRender(r *http.Request) bool {
	for _, p := range s.cfg.AdminPaths {
		if p != "" && strings.HasPrefix(r.URL.Path, p) {
			return false
		}
	}
	return true
}
