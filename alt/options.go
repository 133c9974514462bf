package alt

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EditMode selects which text attributes are written onto image tags.
type EditMode int

const (
	EditOff      EditMode = 0 // leave alt/title alone
	EditAlt      EditMode = 1 // alt only
	EditAltTitle EditMode = 2 // alt and title
)

// Options is the flat option set of the filter. It is passed explicitly to
// every component; nothing in this package keeps process-wide configuration.
type Options struct {
	EditImages              EditMode `json:"editImages" yaml:"editImages" mapstructure:"editImages" validate:"min=0,max=2"`
	OverwriteImages         bool     `json:"overwriteImages" yaml:"overwriteImages" mapstructure:"overwriteImages"`
	AddSize                 bool     `json:"addSize" yaml:"addSize" mapstructure:"addSize"`
	ExcludeEditor           bool     `json:"excludeEditor" yaml:"excludeEditor" mapstructure:"excludeEditor"`
	ExcludeUser             bool     `json:"excludeUser" yaml:"excludeUser" mapstructure:"excludeUser"`
	ExcludeComponents       string   `json:"excludeComponents" yaml:"excludeComponents" mapstructure:"excludeComponents"`
	ExcludeComponentsToggle bool     `json:"excludeComponentsToggle" yaml:"excludeComponentsToggle" mapstructure:"excludeComponentsToggle"`
	ExcludeMasks            string   `json:"exclude_masks" yaml:"exclude_masks" mapstructure:"exclude_masks"`

	// SiteURL is the absolute base URL of the site ("https://example.com/").
	// Image sources starting with it are resolved relative to SiteRoot.
	SiteURL string `json:"siteURL" yaml:"siteURL" mapstructure:"siteURL" validate:"omitempty,url"`
	// SiteRoot is the filesystem directory the site is served from.
	SiteRoot string `json:"siteRoot" yaml:"siteRoot" mapstructure:"siteRoot"`
}

// DefaultOptions turns on size annotation and skips pages with an editor.
func DefaultOptions() Options {
	return Options{
		EditImages:    EditOff,
		AddSize:       true,
		ExcludeEditor: true,
	}
}

var validate = validator.New()

// Validate reports option values the filter cannot act on.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("filter options: %w", err)
	}
	return nil
}

// Masks returns the exclusion masks, in configured order.
func (o Options) Masks() []string { return SplitList(o.ExcludeMasks) }

// Components returns the excluded component identifiers.
func (o Options) Components() []string { return SplitList(o.ExcludeComponents) }

// SplitList splits a newline separated option value, trimming every entry
// and dropping empty ones.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
