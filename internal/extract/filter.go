package extract

import "strings"

// ResolvedLink is an absolute URL paired with its path extension,
// lower-cased and including the leading dot.
type ResolvedLink struct {
	URL string
	Ext string
}

// AllowSet is a case-insensitive extension allow-list keyed by
// dot-prefixed, lower-cased extensions such as ".pdf".
type AllowSet map[string]bool

// NewAllowSet builds an AllowSet from extension strings, normalizing
// case and adding the leading dot where missing.
func NewAllowSet(exts []string) AllowSet {
	set := make(AllowSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// PathExtension derives the extension of a URL from its path component
// alone: everything from the first '?' and '#' onward is discarded before
// looking for the last '.' in the final path segment. Returns "" when the
// path carries no extension.
func PathExtension(absURL string) string {
	s := absURL
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return strings.ToLower(s[i:])
	}
	return ""
}

// Accept classifies an absolute URL against the allow-list. Query strings
// and fragments never influence the decision.
func Accept(absURL string, allowed AllowSet) (ResolvedLink, bool) {
	ext := PathExtension(absURL)
	if ext == "" || !allowed[ext] {
		return ResolvedLink{}, false
	}
	return ResolvedLink{URL: absURL, Ext: ext}, true
}
