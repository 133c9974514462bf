package proxy

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const defaultRenderTimeout = 25 * time.Second

// renderedPage is the DOM of an upstream page after its scripts ran.
type renderedPage struct {
	URL    string
	Status int
	Header http.Header
	HTML   string
}

// browserRenderer loads upstream pages in headless Chrome so that markup
// injected by scripts is filtered as well.
type browserRenderer struct {
	allocator context.Context
	cancel    context.CancelFunc
	logger    *log.Logger
	timeout   time.Duration
}

func newBrowserRenderer(logger *log.Logger, timeout time.Duration) *browserRenderer {
	if logger == nil {
		logger = log.Default()
	}
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-extensions", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &browserRenderer{
		allocator: allocCtx,
		cancel:    cancel,
		logger:    logger,
		timeout:   timeout,
	}
}

func (b *browserRenderer) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Render navigates to target with the forwarded request headers and returns
// the serialised DOM.
func (b *browserRenderer) Render(ctx context.Context, target string, hdr http.Header) (*renderedPage, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("browser render: empty target url")
	}
	taskCtx, cancelBrowser := chromedp.NewContext(b.allocator)
	defer cancelBrowser()

	if ctx != nil {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithCancel(taskCtx)
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-taskCtx.Done():
			}
		}()
		defer cancel()
	}
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.timeout)
	defer cancelTimeout()

	var (
		mu        sync.Mutex
		mainID    network.RequestID
		mainResp  *network.Response
		finalURL  string
		outerHTML string
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			if e.Type == network.ResourceTypeDocument {
				mu.Lock()
				if mainID == "" {
					mainID = e.RequestID
				}
				mu.Unlock()
			}
		case *network.EventResponseReceived:
			mu.Lock()
			if e.RequestID == mainID && e.Type == network.ResourceTypeDocument {
				mainResp = e.Response
			}
			mu.Unlock()
		}
	})

	reqHeaders := cloneHeader(hdr)
	actions := []chromedp.Action{network.Enable()}
	if ua := reqHeaders.Get("User-Agent"); ua != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(ua).Do(ctx)
		}))
		reqHeaders.Del("User-Agent")
	}
	if extra := extraHeaders(reqHeaders); len(extra) > 0 {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetExtraHTTPHeaders(extra).Do(ctx)
		}))
	}
	actions = append(actions,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &outerHTML, chromedp.ByQuery),
	)
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, fmt.Errorf("browser render %s: %w", target, err)
	}

	out := &renderedPage{
		URL:    finalURL,
		Status: http.StatusOK,
		Header: http.Header{},
		HTML:   "<!DOCTYPE html>\n" + outerHTML,
	}
	if out.URL == "" {
		out.URL = target
	}
	mu.Lock()
	if mainResp != nil {
		out.Status = int(mainResp.Status)
		for k, v := range mainResp.Headers {
			out.Header.Add(k, fmt.Sprint(v))
		}
	}
	mu.Unlock()
	// The DOM is re-serialised as UTF-8 without its original transfer
	// framing.
	for _, h := range []string{"Content-Length", "Content-Encoding", "Transfer-Encoding", "Etag"} {
		out.Header.Del(h)
	}
	out.Header.Set("Content-Type", "text/html; charset=utf-8")
	b.logger.Printf("RENDER %s -> %s status=%d %d bytes", target, out.URL, out.Status, len(out.HTML))
	return out, nil
}

// extraHeaders converts forwarded request headers for the DevTools
// protocol, leaving out those the browser manages itself.
func extraHeaders(h http.Header) network.Headers {
	extra := network.Headers{}
	for k, vs := range h {
		name := http.CanonicalHeaderKey(k)
		switch name {
		case "Content-Length", "Accept-Encoding", "Connection", "Host", "Upgrade-Insecure-Requests":
			continue
		}
		if len(vs) == 0 {
			continue
		}
		extra[name] = strings.Join(vs, ", ")
	}
	return extra
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}
