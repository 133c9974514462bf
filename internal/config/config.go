// Package config loads the AutoALT server configuration using Viper, from
// an optional YAML file, AUTOALT_ environment variables and command-line
// flags bound by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"autoalt/alt"
)

// EnvPrefix prefixes environment overrides, e.g. AUTOALT_SERVER_ADDR.
const EnvPrefix = "AUTOALT"

const (
	ModeStatic   = "static"
	ModeUpstream = "upstream"

	RenderDirect  = "direct"
	RenderBrowser = "browser"
)

// DefaultEditorSelectors match the markup of the common rich-text editors.
var DefaultEditorSelectors = []string{
	"textarea.mce_editable",
	".tox-tinymce",
	".cke",
	".joomla-editor-tinymce",
	"[data-editor]",
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor"`
	Filter  alt.Options   `mapstructure:"filter" yaml:"filter"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" yaml:"mode" validate:"oneof=static upstream"`
	Upstream        string        `mapstructure:"upstream" yaml:"upstream" validate:"omitempty,url"`
	Render          string        `mapstructure:"render" yaml:"render" validate:"oneof=direct browser"`
	RenderTimeout   time.Duration `mapstructure:"render_timeout" yaml:"render_timeout"`
	SitesDir        string        `mapstructure:"sites_dir" yaml:"sites_dir"`
	DimCacheEntries int           `mapstructure:"dim_cache_entries" yaml:"dim_cache_entries" validate:"min=0"`
	AdminPaths      []string      `mapstructure:"admin_paths" yaml:"admin_paths"`
}

// SessionConfig tells the server how to recognise authenticated visitors
// and the active component of a request.
type SessionConfig struct {
	Cookies        []string `mapstructure:"cookies" yaml:"cookies"`
	JWTSecret      string   `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`
	ComponentParam string   `mapstructure:"component_param" yaml:"component_param" validate:"required"`
}

type EditorConfig struct {
	Selectors []string `mapstructure:"selectors" yaml:"selectors"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// SetDefaults registers every key with its default so environment variables
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	def := alt.DefaultOptions()
	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.mode", ModeStatic)
	v.SetDefault("server.upstream", "")
	v.SetDefault("server.render", RenderDirect)
	v.SetDefault("server.render_timeout", 25*time.Second)
	v.SetDefault("server.sites_dir", filepath.Join("config", "sites"))
	v.SetDefault("server.dim_cache_entries", 4096)
	v.SetDefault("server.admin_paths", []string{"/administrator"})

	v.SetDefault("session.cookies", []string{})
	v.SetDefault("session.jwt_secret", "")
	v.SetDefault("session.component_param", "option")

	v.SetDefault("editor.selectors", DefaultEditorSelectors)

	v.SetDefault("filter.editImages", int(def.EditImages))
	v.SetDefault("filter.overwriteImages", def.OverwriteImages)
	v.SetDefault("filter.addSize", def.AddSize)
	v.SetDefault("filter.excludeEditor", def.ExcludeEditor)
	v.SetDefault("filter.excludeUser", def.ExcludeUser)
	v.SetDefault("filter.excludeComponents", "")
	v.SetDefault("filter.excludeComponentsToggle", false)
	v.SetDefault("filter.exclude_masks", "")
	v.SetDefault("filter.siteURL", "")
	v.SetDefault("filter.siteRoot", ".")

	v.SetDefault("log.debug", false)
}

// New returns a Viper instance with defaults and environment overrides
// wired. When file is non-empty it is read as the config file; otherwise
// autoalt.yaml is looked up in the working directory and silently skipped
// when absent.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("autoalt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server.Mode = strings.ToLower(strings.TrimSpace(cfg.Server.Mode))
	cfg.Server.Render = strings.ToLower(strings.TrimSpace(cfg.Server.Render))
	cfg.Session.Cookies = trimAll(cfg.Session.Cookies)
	cfg.Editor.Selectors = trimAll(cfg.Editor.Selectors)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.Server.Mode == ModeUpstream && cfg.Server.Upstream == "" {
		return fmt.Errorf("server: upstream mode needs server.upstream")
	}
	if cfg.Server.RenderTimeout < 0 {
		return fmt.Errorf("server: negative render_timeout %s", cfg.Server.RenderTimeout)
	}
	if cfg.Server.Render == RenderBrowser && cfg.Server.Mode != ModeUpstream {
		return fmt.Errorf("server: browser rendering needs upstream mode")
	}
	if cfg.Server.Mode == ModeStatic {
		info, err := os.Stat(cfg.Filter.SiteRoot)
		if err != nil {
			return fmt.Errorf("filter: site root: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("filter: site root %s is not a directory", cfg.Filter.SiteRoot)
		}
	}
	if strings.Contains(filepath.Clean(cfg.Server.SitesDir), "..") {
		return fmt.Errorf("server: sites_dir contains path traversal: %s", cfg.Server.SitesDir)
	}
	return nil
}

// YAML renders cfg the way it would be written in autoalt.yaml. The JWT
// secret is never printed.
func YAML(cfg *Config) ([]byte, error) {
	out := *cfg
	out.Session.JWTSecret = ""
	return yaml.Marshal(&out)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
