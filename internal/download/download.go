// Package download holds the retrying file downloader and the collision
// policy resolver that decides where each file lands.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// DefaultTimeout bounds a single download attempt end to end.
const DefaultTimeout = 120 * time.Second

// DefaultMaxRetries is the per-file attempt budget.
const DefaultMaxRetries = 3

// maxRedirects caps redirect-following per attempt.
const maxRedirects = 5

// maxBackoff caps the sleep between attempts.
const maxBackoff = 30 * time.Second

// Error reports a failed download, carrying the last HTTP status observed
// (0 for transport-level failures) and the number of attempts made.
// Permanent marks failures that retrying cannot fix, such as local
// filesystem errors.
type Error struct {
	URL       string
	Status    int
	Attempts  int
	Message   string
	Cause     error
	Permanent bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("download failed for %s after %d attempt(s): %s", e.URL, e.Attempts, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Downloader.
type Options struct {
	MaxRetries int
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
}

// Downloader performs single-file transfers with bounded retries and
// HTTP-status-aware exponential backoff.
type Downloader struct {
	client     *http.Client
	maxRetries int
	userAgent  string
	headers    map[string]string

	// sleep is swappable so retry behavior is testable without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Downloader. Zero-valued options fall back to defaults.
func New(opts Options) *Downloader {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Downloader{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxRetries: opts.MaxRetries,
		userAgent:  opts.UserAgent,
		headers:    opts.Headers,
		sleep:      sleepContext,
	}
}

// Download fetches url into dest, retrying per the status eligibility
// table. The body streams through a temp file that is renamed into place
// only after a non-empty transfer, so a failed attempt never leaves a
// partial file at dest.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	var last *Error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		attemptErr := d.attempt(ctx, url, dest)
		if attemptErr == nil {
			return nil
		}
		attemptErr.Attempts = attempt + 1
		last = attemptErr

		if attemptErr.Permanent || !Retryable(attemptErr.Status) {
			break
		}
		if attempt+1 >= d.maxRetries {
			break
		}
		if err := d.sleep(ctx, Backoff(attempt)); err != nil {
			last.Cause = err
			break
		}
	}
	return last
}

// attempt performs one GET and writes the body to dest via a temp file.
func (d *Downloader) attempt(ctx context.Context, url, dest string) *Error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{URL: url, Message: "failed to create request", Cause: err}
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &Error{URL: url, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{URL: url, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	// Filesystem failures are permanent: retrying cannot fix a directory
	// that refuses writes.
	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return &Error{URL: url, Status: resp.StatusCode, Message: "failed to create file", Cause: err, Permanent: true}
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		// A truncated body is a transfer failure, worth retrying.
		_ = os.Remove(part)
		return &Error{URL: url, Status: resp.StatusCode, Message: "failed to read body", Cause: copyErr}
	}
	if closeErr != nil {
		_ = os.Remove(part)
		return &Error{URL: url, Status: resp.StatusCode, Message: "failed to write file", Cause: closeErr, Permanent: true}
	}
	if n == 0 {
		_ = os.Remove(part)
		return &Error{URL: url, Status: resp.StatusCode, Message: "empty file"}
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return &Error{URL: url, Status: resp.StatusCode, Message: "failed to move file into place", Cause: err, Permanent: true}
	}
	return nil
}

// Retryable reports whether a failure with the given HTTP status is worth
// another attempt. Status 0 means no HTTP status was available (transport
// failure) and defaults to retrying, as do unlisted statuses. 403 retries
// because CDN and user-agent blocks are frequently transient.
func Retryable(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
		return false
	}
	return true
}

// Backoff computes the delay before the attempt following the given
// zero-based attempt number: 2^attempt seconds plus up to two seconds of
// jitter, capped at 30 seconds.
func Backoff(attempt int) time.Duration {
	secs := math.Pow(2, float64(attempt)) + rand.Float64()*2
	d := time.Duration(secs * float64(time.Second))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// sleepContext sleeps for d but returns early if ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsPermanent reports whether err is a download error that no amount of
// retrying can fix. Useful for callers that want to distinguish fail-fast
// outcomes in logs.
func IsPermanent(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		if de.Permanent {
			return true
		}
		return de.Status != 0 && !Retryable(de.Status)
	}
	return false
}
