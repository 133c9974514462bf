package alt

import (
	"bufio"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Prober reads the pixel dimensions of a local image file.
type Prober interface {
	Dimensions(path string) (width, height int, ok bool)
}

// FileProber decodes image headers straight from disk.
type FileProber struct{}

// Dimensions implements Prober. Only the header is decoded.
func (FileProber) Dimensions(path string) (int, int, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, 0, false
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// SizeAnnotator adds width and height attributes for images served from
// the local site root. It never fails: anything it cannot resolve or read
// leaves the tag as it was.
type SizeAnnotator struct {
	SiteURL  string
	SiteRoot string
	Prober   Prober
}

// NewSizeAnnotator builds an annotator for the site described by opt. A nil
// prober reads files directly.
func NewSizeAnnotator(opt Options, p Prober) *SizeAnnotator {
	if p == nil {
		p = FileProber{}
	}
	return &SizeAnnotator{SiteURL: opt.SiteURL, SiteRoot: opt.SiteRoot, Prober: p}
}

// Annotate returns tagText with the missing dimensions of src inserted.
func (a *SizeAnnotator) Annotate(tagText, src string) string {
	t, ok := parseTag(tagText)
	if !ok {
		return tagText
	}
	a.annotate(t, src)
	return t.String()
}

func (a *SizeAnnotator) annotate(t *tag, src string) {
	hasW, hasH := t.has(widthPattern), t.has(heightPattern)
	if hasW && hasH {
		return
	}
	path, ok := a.Resolve(src)
	if !ok {
		return
	}
	w, h, ok := a.Prober.Dimensions(path)
	if !ok {
		return
	}
	if !hasW {
		t.add("width", strconv.Itoa(w))
	}
	if !hasH {
		t.add("height", strconv.Itoa(h))
	}
}

// Resolve maps an image source to a file below the site root. Sources that
// start with the site URL, or with '/', are taken relative to the root.
// Paths escaping the root are rejected.
func (a *SizeAnnotator) Resolve(src string) (string, bool) {
	if a == nil || a.SiteRoot == "" || src == "" {
		return "", false
	}
	path := src
	if a.SiteURL != "" && strings.HasPrefix(src, a.SiteURL) {
		path = src[len(a.SiteURL):]
	} else if src[0] == '/' {
		path = src[1:]
	}
	root := filepath.Clean(a.SiteRoot)
	file := filepath.Join(root, filepath.FromSlash(strings.TrimLeft(path, "/")))
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return file, true
}
