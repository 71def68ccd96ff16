// Package localize saves an offline copy of a fetched page, rewriting
// embedded image references to locally downloaded copies.
package localize

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/stevechang0459/wps-pdf-downloader/internal/extract"
)

// assetConcurrency bounds parallel image downloads. The main download loop
// stays sequential; only asset localization fans out.
const assetConcurrency = 4

// timestampLayout matches the transcript naming convention.
const timestampLayout = "20060102_150405"

// FileDownloader transfers one file to a local path.
type FileDownloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Result reports what the localizer produced.
type Result struct {
	PagePath  string
	AssetDir  string
	Localized int
	Failed    int
}

// Page writes an offline copy of pageHTML into outputDir: images are
// downloaded under "<title>_<timestamp>_files/" and their src attributes
// rewritten to the local copies. Images that fail to download keep their
// original reference; only a filesystem or parse failure aborts.
func Page(ctx context.Context, dl FileDownloader, pageHTML, baseURL, outputDir string, now time.Time) (*Result, error) {
	title := pageTitle(pageHTML)
	folderName := fmt.Sprintf("%s_%s_files", title, now.Format(timestampLayout))
	assetDir := filepath.Join(outputDir, folderName)
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory %s: %w", assetDir, err)
	}

	// Download every referenced image first, with bounded fan-out; the DOM
	// is rewritten afterwards on a single goroutine.
	local := downloadImages(ctx, dl, extract.Images(pageHTML, baseURL), folderName, assetDir)

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	rewriteImages(doc, baseURL, local)

	pagePath := filepath.Join(outputDir, title+".html")
	f, err := os.Create(pagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", pagePath, err)
	}
	renderErr := html.Render(f, doc)
	if closeErr := f.Close(); renderErr == nil {
		renderErr = closeErr
	}
	if renderErr != nil {
		return nil, fmt.Errorf("failed to write %s: %w", pagePath, renderErr)
	}

	res := &Result{PagePath: pagePath, AssetDir: assetDir, Localized: len(local)}
	res.Failed = countImages(pageHTML, baseURL) - res.Localized
	return res, nil
}

// downloadImages fetches each image into assetDir and returns a map from
// absolute image URL to the rewritten (relative) reference.
func downloadImages(ctx context.Context, dl FileDownloader, urls []string, folderName, assetDir string) map[string]string {
	names := assetNames(urls)

	var mu sync.Mutex
	local := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(assetConcurrency)

	for i, imgURL := range urls {
		i, imgURL := i, imgURL
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			name := names[i]
			dest := filepath.Join(assetDir, name)
			if err := dl.Download(gctx, imgURL, dest); err != nil {
				// Leave the original reference intact for this image.
				return nil
			}
			mu.Lock()
			local[imgURL] = path.Join(folderName, name)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return local
}

// rewriteImages walks the DOM and points img src attributes at the local
// copies recorded in local.
func rewriteImages(n *html.Node, baseURL string, local map[string]string) {
	if n.Type == html.ElementNode && n.Data == "img" {
		for i, attr := range n.Attr {
			if attr.Key != "src" || attr.Val == "" {
				continue
			}
			abs, ok := extract.Normalize(attr.Val, baseURL)
			if !ok {
				continue
			}
			if rel, found := local[abs]; found {
				n.Attr[i].Val = rel
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteImages(c, baseURL, local)
	}
}

// pageTitle derives a filesystem-safe name from the page title, falling
// back to "page" when the page has none.
func pageTitle(pageHTML string) string {
	title := extract.Title(pageHTML)
	title = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, title)
	title = strings.TrimSpace(title)
	if title == "" {
		return "page"
	}
	return title
}

// assetNames assigns each image URL a distinct local name. Distinct URLs
// sharing a basename (say /a/logo.png and /b/logo.png) get a seq suffix on
// the later occurrences so they never overwrite each other.
func assetNames(urls []string) []string {
	names := make([]string, len(urls))
	taken := make(map[string]bool, len(urls))
	for i, imgURL := range urls {
		name := imageFileName(imgURL, i+1)
		if taken[name] {
			ext := path.Ext(name)
			name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), i+1, ext)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// imageFileName derives a local name for an image URL, synthesizing
// img_<seq> when the path has no usable final segment.
func imageFileName(imgURL string, seq int) string {
	name := ""
	if u, err := url.Parse(imgURL); err == nil {
		name = path.Base(u.Path)
		if name == "." || name == "/" {
			name = ""
		}
	}
	if name == "" {
		name = fmt.Sprintf("img_%d", seq)
	}
	return name
}

func countImages(pageHTML, baseURL string) int {
	return len(extract.Images(pageHTML, baseURL))
}
