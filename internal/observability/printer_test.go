package observability

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stevechang0459/wps-pdf-downloader/internal/download"
	"github.com/stevechang0459/wps-pdf-downloader/internal/round"
)

func TestPrinter_Banner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBanner("https://site.example/page", "/tmp/out", []string{".pdf", ".zip"}, download.Overwrite)

	out := buf.String()
	assert.Contains(t, out, "wps-pdf-downloader")
	assert.Contains(t, out, "https://site.example/page")
	assert.Contains(t, out, ".pdf, .zip")
	assert.Contains(t, out, "overwrite")
}

func TestPrinter_FileEvents(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.RoundStarted("https://site.example/page", 2)
	p.FileFinished(round.FileEvent{Seq: 1, Name: "a.pdf", Disposition: download.DispositionNew})
	p.FileFinished(round.FileEvent{Seq: 2, URL: "https://site.example/b.pdf", Err: errors.New("HTTP 404")})

	out := buf.String()
	assert.Contains(t, out, "Found 2 matching file(s)")
	assert.Contains(t, out, "[1] downloaded a.pdf")
	assert.Contains(t, out, "[2] FAIL https://site.example/b.pdf: HTTP 404")
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.RoundFinished(round.Result{Outcome: round.Completed, OK: 3, Failed: 1, Skipped: 2})

	out := buf.String()
	assert.Contains(t, out, "Round summary")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Downloaded: 3")
	assert.Contains(t, out, "Failed:     1")
	assert.Contains(t, out, "Skipped:    2")
}
