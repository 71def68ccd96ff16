// Package transcript writes the plain-text session log for a round,
// mirroring every per-file event in the output directory.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/stevechang0459/wps-pdf-downloader/internal/download"
	"github.com/stevechang0459/wps-pdf-downloader/internal/round"
)

// TimestampLayout names transcript files: log_20060102_150405.txt.
const TimestampLayout = "20060102_150405"

// Writer appends round progress to a log file. It implements
// round.Observer; events arrive sequentially, so no locking is needed.
type Writer struct {
	f       *os.File
	path    string
	roundID uuid.UUID
}

// New creates log_<timestamp>.txt under dir and writes the session header.
func New(dir, pageURL string, start time.Time) (*Writer, error) {
	path := filepath.Join(dir, fmt.Sprintf("log_%s.txt", start.Format(TimestampLayout)))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript %s: %w", path, err)
	}

	w := &Writer{f: f, path: path, roundID: uuid.New()}
	w.line("session %s", w.roundID)
	w.line("page    %s", pageURL)
	w.line("started %s", start.Format(time.RFC3339))
	w.line("")
	return w, nil
}

// Path returns the transcript file location.
func (w *Writer) Path() string {
	return w.path
}

// RoundStarted implements round.Observer.
func (w *Writer) RoundStarted(pageURL string, total int) {
	w.line("matched %d file(s) on %s", total, pageURL)
}

// FileFinished implements round.Observer.
func (w *Writer) FileFinished(ev round.FileEvent) {
	switch {
	case ev.Err != nil:
		w.line("[%d] FAIL %s: %v", ev.Seq, ev.URL, ev.Err)
	case ev.Disposition == download.DispositionSkipped:
		w.line("[%d] SKIP %s (already exists)", ev.Seq, ev.Name)
	default:
		w.line("[%d] OK   %s -> %s (%s)", ev.Seq, ev.URL, ev.Name, ev.Disposition)
	}
}

// RoundFinished implements round.Observer.
func (w *Writer) RoundFinished(res round.Result) {
	w.line("")
	w.line("outcome %s", res.Outcome)
	if res.PageErr != nil {
		w.line("page error: %v", res.PageErr)
	}
	w.line("ok %d, failed %d, skipped %d", res.OK, res.Failed, res.Skipped)
}

// Close flushes and closes the log file.
func (w *Writer) Close() error {
	return w.f.Close()
}

//nolint:errcheck // transcript writes are best-effort; a full disk should not kill the round
func (w *Writer) line(format string, args ...any) {
	fmt.Fprintf(w.f, format+"\n", args...)
}
