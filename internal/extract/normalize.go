package extract

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// encodedArtifacts matches trailing percent-encoded or entity-encoded
// quote/backslash remnants left behind by attribute scraping, e.g.
// `...doc.pdf%22` or `...doc.pdf&quot;`.
var encodedArtifacts = regexp.MustCompile(`(?i)(?:%22|%27|%5C|&quot;|&#34;|&#39;)+$`)

// Normalize resolves a raw href scraped from page markup into an absolute
// URL. It decodes HTML entities, strips trailing scrape artifacts, and
// resolves relative and protocol-relative references against baseURL.
// The second return value is false when the candidate must be rejected.
func Normalize(rawHref, baseURL string) (string, bool) {
	cleaned := strings.TrimSpace(html.UnescapeString(rawHref))
	cleaned = stripArtifacts(cleaned)

	if cleaned == "" {
		return "", false
	}

	lower := strings.ToLower(cleaned)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return cleaned, true
	}

	// Protocol-relative references inherit https.
	if strings.HasPrefix(cleaned, "//") {
		return "https:" + cleaned, true
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", false
	}
	ref, err := url.Parse(cleaned)
	if err != nil {
		return "", false
	}

	return base.ResolveReference(ref).String(), true
}

// stripArtifacts removes trailing quote/parenthesis characters and encoded
// quote remnants until the string is stable.
func stripArtifacts(s string) string {
	for {
		trimmed := encodedArtifacts.ReplaceAllString(s, "")
		trimmed = strings.TrimRight(trimmed, `"')`)
		if trimmed == s {
			return trimmed
		}
		s = trimmed
	}
}
