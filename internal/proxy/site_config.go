package proxy

import (
	"encoding/json"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"autoalt/alt"
)

// SiteConfig holds per-host filter overrides, read from <host>.json in the
// sites directory. Unset fields keep the server-wide value.
type SiteConfig struct {
	Disabled                bool    `json:"disabled,omitempty"`
	EditImages              *int    `json:"editImages,omitempty"`
	OverwriteImages         *bool   `json:"overwriteImages,omitempty"`
	AddSize                 *bool   `json:"addSize,omitempty"`
	ExcludeEditor           *bool   `json:"excludeEditor,omitempty"`
	ExcludeUser             *bool   `json:"excludeUser,omitempty"`
	ExcludeComponents       *string `json:"excludeComponents,omitempty"`
	ExcludeComponentsToggle *bool   `json:"excludeComponentsToggle,omitempty"`
	ExcludeMasks            *string `json:"exclude_masks,omitempty"`
	SiteURL                 *string `json:"siteURL,omitempty"`
	SiteRoot                *string `json:"siteRoot,omitempty"`
}

// Apply returns base with the overrides of c.
func (c *SiteConfig) Apply(base alt.Options) alt.Options {
	if c == nil {
		return base
	}
	o := base
	if c.EditImages != nil {
		o.EditImages = alt.EditMode(*c.EditImages)
	}
	setBool(&o.OverwriteImages, c.OverwriteImages)
	setBool(&o.AddSize, c.AddSize)
	setBool(&o.ExcludeEditor, c.ExcludeEditor)
	setBool(&o.ExcludeUser, c.ExcludeUser)
	setBool(&o.ExcludeComponentsToggle, c.ExcludeComponentsToggle)
	setString(&o.ExcludeComponents, c.ExcludeComponents)
	setString(&o.ExcludeMasks, c.ExcludeMasks)
	setString(&o.SiteURL, c.SiteURL)
	setString(&o.SiteRoot, c.SiteRoot)
	return o
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type siteConfigStore struct {
	dir     string
	logger  *log.Logger
	mu      sync.RWMutex
	cache   map[string]*SiteConfig
	watcher *fsnotify.Watcher
}

func newSiteConfigStore(dir string, logger *log.Logger) *siteConfigStore {
	if logger == nil {
		logger = log.Default()
	}
	return &siteConfigStore{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*SiteConfig),
	}
}

// Find returns the config of host or of its closest parent domain.
func (s *siteConfigStore) Find(host string) *SiteConfig {
	host = normalizeHost(host)
	if host == "" {
		return nil
	}
	s.mu.RLock()
	if cfg, ok := s.cache[host]; ok {
		s.mu.RUnlock()
		return cfg
	}
	s.mu.RUnlock()

	labels := strings.Split(host, ".")
	for i := 0; i < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")
		if cfg := s.load(candidate); cfg != nil {
			s.mu.Lock()
			s.cache[host] = cfg
			s.mu.Unlock()
			return cfg
		}
	}
	s.mu.Lock()
	s.cache[host] = nil
	s.mu.Unlock()
	return nil
}

// Invalidate drops every cached lookup.
func (s *siteConfigStore) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]*SiteConfig)
	s.mu.Unlock()
}

func (s *siteConfigStore) load(host string) *SiteConfig {
	if s.dir == "" {
		return nil
	}
	path := filepath.Join(s.dir, host+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cfg SiteConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Printf("SITE %s: %v", path, err)
		return nil
	}
	return &cfg
}

// Watch invalidates the cache on every change of a .json file in the sites
// directory. A missing directory is not an error; nothing is watched.
func (s *siteConfigStore) Watch() error {
	if s.dir == "" {
		return nil
	}
	if info, err := os.Stat(s.dir); err != nil || !info.IsDir() {
		s.logger.Printf("SITE %s: not watching, no such directory", s.dir)
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	go s.watchLoop(w)
	return nil
}

func (s *siteConfigStore) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			s.Invalidate()
			s.logger.Printf("SITE reload %s (%s)", filepath.Base(ev.Name), ev.Op)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Printf("SITE watch error: %v", err)
		}
	}
}

func (s *siteConfigStore) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.Trim(host, "[].")
}
