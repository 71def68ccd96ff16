package download

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/stevechang0459/wps-pdf-downloader/internal/extract"
)

// Policy decides what happens when a download's target filename already
// exists locally.
type Policy string

const (
	// Overwrite replaces the existing file.
	Overwrite Policy = "overwrite"
	// Rename probes "name (2).ext", "name (3).ext", ... for a free slot.
	Rename Policy = "rename"
	// Skip leaves the existing file alone and records the URL as neither
	// success nor failure.
	Skip Policy = "skip"
)

// ParsePolicy validates a policy string from configuration or flags.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case Overwrite:
		return Overwrite, nil
	case Rename:
		return Rename, nil
	case Skip:
		return Skip, nil
	}
	return "", fmt.Errorf("unknown collision policy %q (want overwrite, rename, or skip)", s)
}

// Disposition reports how the resolver settled a target path.
type Disposition string

const (
	DispositionNew       Disposition = "downloaded"
	DispositionOverwrite Disposition = "overwritten"
	DispositionRenamed   Disposition = "renamed"
	DispositionSkipped   Disposition = "skipped"
)

// maxRenameProbes bounds the rename probe so a pathological directory
// cannot spin the resolver forever.
const maxRenameProbes = 10000

// Resolve decides the actual output path for fileName under dir according
// to the collision policy. A DispositionSkipped result carries an empty
// path and signals the caller to count the file as neither success nor
// failure.
func Resolve(dir, fileName string, policy Policy) (string, Disposition, error) {
	target := filepath.Join(dir, fileName)
	exists, err := fileExists(target)
	if err != nil {
		return "", "", err
	}
	if !exists {
		return target, DispositionNew, nil
	}

	switch policy {
	case Overwrite:
		return target, DispositionOverwrite, nil
	case Skip:
		return "", DispositionSkipped, nil
	case Rename:
		base := fileName
		ext := filepath.Ext(fileName)
		stem := strings.TrimSuffix(base, ext)
		for n := 2; n <= maxRenameProbes; n++ {
			candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
			exists, err := fileExists(candidate)
			if err != nil {
				return "", "", err
			}
			if !exists {
				return candidate, DispositionRenamed, nil
			}
		}
		return "", "", fmt.Errorf("no free filename for %s in %s after %d probes", fileName, dir, maxRenameProbes)
	}
	return "", "", fmt.Errorf("unknown collision policy %q", policy)
}

// FileName derives a local filename for a resolved link. When the URL path
// carries no usable final segment (trailing slash, query-only reference),
// a synthetic "file_<seq><ext>" name is used, defaulting the extension to
// .pdf when the link itself has none.
func FileName(link extract.ResolvedLink, seq int) string {
	name := ""
	// A path ending in "/" has no filename component; path.Base would
	// surface the parent segment instead.
	if u, err := url.Parse(link.URL); err == nil && !strings.HasSuffix(u.Path, "/") {
		name = path.Base(u.Path)
		if name == "." {
			name = ""
		}
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
	}
	name = sanitizeFileName(name)
	if name == "" {
		ext := link.Ext
		if ext == "" {
			ext = ".pdf"
		}
		name = fmt.Sprintf("file_%d%s", seq, ext)
	}
	return name
}

// sanitizeFileName strips characters that are path separators or invalid
// on common filesystems.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
}

func fileExists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", p, err)
}
