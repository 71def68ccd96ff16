package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevechang0459/wps-pdf-downloader/internal/download"
	"github.com/stevechang0459/wps-pdf-downloader/internal/round"
)

func TestWriter_FullSession(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	w, err := New(dir, "https://site.example/page", start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log_20250314_092653.txt"), w.Path())

	w.RoundStarted("https://site.example/page", 3)
	w.FileFinished(round.FileEvent{
		Seq: 1, URL: "https://site.example/a.pdf", Name: "a.pdf",
		Disposition: download.DispositionNew,
	})
	w.FileFinished(round.FileEvent{
		Seq: 2, URL: "https://site.example/b.pdf", Name: "b.pdf",
		Disposition: download.DispositionSkipped,
	})
	w.FileFinished(round.FileEvent{
		Seq: 3, URL: "https://site.example/c.pdf", Name: "c.pdf",
		Err: errors.New("HTTP 503"),
	})
	w.RoundFinished(round.Result{Outcome: round.Completed, OK: 1, Failed: 1, Skipped: 1})
	require.NoError(t, w.Close())

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "page    https://site.example/page")
	assert.Contains(t, text, "matched 3 file(s)")
	assert.Contains(t, text, "[1] OK   https://site.example/a.pdf -> a.pdf (downloaded)")
	assert.Contains(t, text, "[2] SKIP b.pdf (already exists)")
	assert.Contains(t, text, "[3] FAIL https://site.example/c.pdf: HTTP 503")
	assert.Contains(t, text, "outcome completed")
	assert.Contains(t, text, "ok 1, failed 1, skipped 1")
}

func TestWriter_BadDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "nested"), "https://x.example/", time.Now())
	assert.Error(t, err)
}
