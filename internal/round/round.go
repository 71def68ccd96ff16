// Package round orchestrates one complete cycle: fetch the page, extract
// and filter links, then download every match in deterministic order.
package round

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stevechang0459/wps-pdf-downloader/internal/download"
	"github.com/stevechang0459/wps-pdf-downloader/internal/extract"
	"github.com/stevechang0459/wps-pdf-downloader/internal/fetch"
)

// Outcome classifies how a round ended.
type Outcome int

const (
	// Completed means extraction succeeded and downloads were attempted;
	// the round may still carry per-file failures.
	Completed Outcome = iota
	// FetchFailed means the page itself could not be retrieved.
	FetchFailed
	// NoMatches means the page fetched but no link survived filtering.
	NoMatches
	// Aborted means no page URL was supplied; nothing was attempted.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case FetchFailed:
		return "fetch failed"
	case NoMatches:
		return "no matching links"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// ExitCode maps an outcome to the process exit code surfaced to callers.
func (o Outcome) ExitCode() int {
	switch o {
	case Completed:
		return 0
	case FetchFailed:
		return 2
	case NoMatches:
		return 3
	case Aborted:
		return 100
	}
	return 1
}

// FileEvent records the fate of one download target. Err is nil for
// successes and skips.
type FileEvent struct {
	Seq         int
	URL         string
	Name        string
	Path        string
	Disposition download.Disposition
	Err         error
}

// Result summarizes one round. Events preserve processing order. Page is
// the fetched page content, kept so callers can localize it afterwards;
// nil when the fetch failed or the round aborted.
type Result struct {
	Outcome Outcome
	OK      int
	Failed  int
	Skipped int
	Events  []FileEvent
	Page    *fetch.Result
	PageErr error
}

// Observer receives round progress as it happens. The console printer and
// the transcript writer both implement it.
type Observer interface {
	RoundStarted(pageURL string, total int)
	FileFinished(ev FileEvent)
	RoundFinished(res Result)
}

// PageFetcher retrieves the page HTML, however that happens (static GET or
// headless rendering).
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// FileDownloader transfers one file to a local path.
type FileDownloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Config is the immutable per-round configuration.
type Config struct {
	OutputDir string
	Allowed   extract.AllowSet
	Policy    download.Policy
}

// Runner sequences extraction, destination resolution, and downloads.
type Runner struct {
	cfg       Config
	fetcher   PageFetcher
	dl        FileDownloader
	observers []Observer
}

// NewRunner builds a Runner. Observers are notified in registration order.
func NewRunner(cfg Config, fetcher PageFetcher, dl FileDownloader, observers ...Observer) *Runner {
	return &Runner{cfg: cfg, fetcher: fetcher, dl: dl, observers: observers}
}

// Run executes one round against pageURL. The returned Result always
// carries the outcome classification and per-file events; it never panics
// on partial failure.
func (r *Runner) Run(ctx context.Context, pageURL string) Result {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		res := Result{Outcome: Aborted}
		r.finish(res)
		return res
	}

	page, err := r.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		res := Result{Outcome: FetchFailed, PageErr: err}
		r.finish(res)
		return res
	}

	links := extract.Links(page.HTML, pageURL, r.cfg.Allowed)
	if len(links) == 0 {
		res := Result{Outcome: NoMatches, Page: page}
		r.finish(res)
		return res
	}

	for _, obs := range r.observers {
		obs.RoundStarted(pageURL, len(links))
	}

	res := Result{Outcome: Completed, Page: page}
	for i, link := range links {
		ev := r.processOne(ctx, i+1, link)
		res.Events = append(res.Events, ev)
		switch {
		case ev.Disposition == download.DispositionSkipped:
			res.Skipped++
		case ev.Err != nil:
			res.Failed++
		default:
			res.OK++
		}
		for _, obs := range r.observers {
			obs.FileFinished(ev)
		}
	}

	r.finish(res)
	return res
}

// processOne resolves the destination for one link and downloads it.
func (r *Runner) processOne(ctx context.Context, seq int, link extract.ResolvedLink) FileEvent {
	name := download.FileName(link, seq)
	ev := FileEvent{Seq: seq, URL: link.URL, Name: name}

	path, disp, err := download.Resolve(r.cfg.OutputDir, name, r.cfg.Policy)
	ev.Disposition = disp
	if err != nil {
		ev.Err = fmt.Errorf("failed to resolve destination for %s: %w", link.URL, err)
		return ev
	}
	if disp == download.DispositionSkipped {
		return ev
	}

	ev.Path = path
	ev.Name = filepath.Base(path)
	if err := r.dl.Download(ctx, link.URL, path); err != nil {
		ev.Err = err
	}
	return ev
}

func (r *Runner) finish(res Result) {
	for _, obs := range r.observers {
		obs.RoundFinished(res)
	}
}
