// Package observability provides formatted console output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/stevechang0459/wps-pdf-downloader/internal/download"
	"github.com/stevechang0459/wps-pdf-downloader/internal/round"
)

// boxWidth is the default width for formatted output boxes
const boxWidth = 60

// Printer handles formatted console output. It implements round.Observer.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBanner outputs the startup banner with the resolved settings.
func (p *Printer) PrintBanner(pageURL, outDir string, exts []string, policy download.Policy) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Page:       %s\n", pageURL))
	sb.WriteString(fmt.Sprintf("Output:     %s\n", outDir))
	sb.WriteString(fmt.Sprintf("Extensions: %s\n", strings.Join(exts, ", ")))
	sb.WriteString(fmt.Sprintf("Collisions: %s", policy))
	p.printBox("wps-pdf-downloader", sb.String())
}

// RoundStarted implements round.Observer.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) RoundStarted(pageURL string, total int) {
	fmt.Fprintf(p.out, "Found %d matching file(s) on %s\n", total, pageURL)
}

// FileFinished implements round.Observer.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) FileFinished(ev round.FileEvent) {
	switch {
	case ev.Err != nil:
		fmt.Fprintf(p.out, "  [%d] FAIL %s: %v\n", ev.Seq, ev.URL, ev.Err)
	case ev.Disposition == download.DispositionSkipped:
		fmt.Fprintf(p.out, "  [%d] skip %s (already exists)\n", ev.Seq, ev.Name)
	default:
		fmt.Fprintf(p.out, "  [%d] %s %s\n", ev.Seq, ev.Disposition, ev.Name)
	}
}

// RoundFinished implements round.Observer.
func (p *Printer) RoundFinished(res round.Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Outcome:    %s\n", res.Outcome))
	if res.PageErr != nil {
		sb.WriteString(fmt.Sprintf("Page error: %v\n", res.PageErr))
	}
	sb.WriteString(fmt.Sprintf("Downloaded: %d\n", res.OK))
	sb.WriteString(fmt.Sprintf("Failed:     %d\n", res.Failed))
	sb.WriteString(fmt.Sprintf("Skipped:    %d", res.Skipped))
	p.printBox("Round summary", sb.String())
}
