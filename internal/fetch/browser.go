// Package fetch - browser.go provides headless browser rendering for pages
// whose markup is generated by JavaScript after load.
package fetch

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// DefaultRenderTimeout bounds one headless rendering pass.
const DefaultRenderTimeout = 30 * time.Second

// MinContentLength is the minimum visible text length for a static fetch
// to be considered complete. Shorter pages are likely JavaScript shells.
const MinContentLength = 500

// ShouldRender reports whether the statically fetched HTML looks like a
// JavaScript shell that needs browser rendering to produce real content.
func ShouldRender(htmlContent string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return false
	}
	text := strings.TrimSpace(doc.Find("body").Text())
	return len(text) < MinContentLength
}

// Rendered navigates to url in a headless browser and returns the DOM
// markup after the page settles. Requires Chrome/Chromium on the system.
func Rendered(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give late-running scripts a moment to fill the DOM.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	return html, nil
}

// Client fetches pages with a plain GET first, escalating to the headless
// browser when enabled and the static markup looks like a JavaScript shell.
// Browser failures fall back to the static content.
type Client struct {
	opts          *Options
	useBrowser    bool
	verbose       bool
	renderTimeout time.Duration

	// render is swappable so escalation decisions are testable without a
	// real browser.
	render func(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// NewClient builds a page fetcher. A nil opts uses DefaultOptions.
func NewClient(opts *Options, useBrowser, verbose bool) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Client{
		opts:          opts,
		useBrowser:    useBrowser,
		verbose:       verbose,
		renderTimeout: DefaultRenderTimeout,
		render:        Rendered,
	}
}

// Fetch retrieves the page, rendered or plain per client configuration.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	res, err := Page(ctx, url, c.opts)
	if err != nil {
		if !c.useBrowser {
			return res, err
		}
		if c.verbose {
			log.Printf("[VERBOSE] Static fetch failed: %v, trying browser rendering...", err)
		}
		html, renderErr := c.render(ctx, url, c.renderTimeout)
		if renderErr != nil {
			return res, err
		}
		return &Result{URL: url, HTML: html, StatusCode: http.StatusOK, Rendered: true}, nil
	}

	// Check if the static markup needs browser rendering
	if c.useBrowser && ShouldRender(res.HTML) {
		if c.verbose {
			log.Printf("[VERBOSE] Body text under %d chars, falling back to browser rendering...", MinContentLength)
		}
		html, renderErr := c.render(ctx, url, c.renderTimeout)
		if renderErr != nil {
			if c.verbose {
				log.Printf("[VERBOSE] Browser rendering failed: %v, using HTTP content", renderErr)
			}
			return res, nil
		}
		return &Result{URL: url, HTML: html, StatusCode: http.StatusOK, Rendered: true}, nil
	}

	return res, nil
}
