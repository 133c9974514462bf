// Command imgprobe fetches or reads one page and prints, tag by tag, what
// the image filter would do with it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"autoalt/alt"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("imgprobe", flag.ContinueOnError)
	title := fs.String("title", "", "page title (default: the document <title>)")
	edit := fs.Int("edit", int(alt.EditAltTitle), "0 sizes only, 1 alt, 2 alt and title")
	overwrite := fs.Bool("overwrite", false, "replace existing alt and title values")
	siteRoot := fs.String("site-root", "", "local site root for image sizes")
	siteURL := fs.String("site-url", "", "public site URL stripped from image sources")
	masks := fs.String("masks", "", "comma separated source substrings to leave alone")
	timeout := fs.Duration("timeout", 20*time.Second, "fetch timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: imgprobe [flags] URL|FILE")
	}
	target := fs.Arg(0)

	doc, err := load(target, *timeout)
	if err != nil {
		return err
	}
	if *title == "" {
		*title = documentTitle(doc)
	}
	opt := alt.DefaultOptions()
	opt.EditImages = alt.EditMode(*edit)
	opt.OverwriteImages = *overwrite
	opt.AddSize = *siteRoot != ""
	opt.SiteRoot = *siteRoot
	opt.SiteURL = *siteURL
	opt.ExcludeMasks = strings.ReplaceAll(*masks, ",", "\n")
	if err := opt.Validate(); err != nil {
		return err
	}

	_, rep := alt.New(opt, nil).Apply(doc, *title)
	fmt.Fprintf(stdout, "page %s\ntitle %q\nimages %d, changed %d\n", target, rep.Title, len(rep.Tags), rep.Changed)
	for _, t := range rep.Tags {
		fmt.Fprintf(stdout, "@%d %-12s %s\n", t.Offset, t.Outcome, t.Src)
		if t.Outcome == alt.Changed {
			fmt.Fprintf(stdout, "    - %s\n    + %s\n", t.Original, t.Updated)
		}
	}
	return nil
}

func load(target string, timeout time.Duration) (string, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		data, err := os.ReadFile(target)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", target, err)
		}
		return string(data), nil
	}
	log.Printf("fetch %s", target)
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "imgprobe/1.0").
		SetHeader("Accept", "text/html,application/xhtml+xml")
	resp, err := client.R().Get(target)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s: %s", target, resp.Status())
	}
	return resp.String(), nil
}

func documentTitle(doc string) string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(d.Find("head title").First().Text())
}
