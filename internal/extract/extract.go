// Package extract turns raw page HTML into the deduplicated, sorted set of
// downloadable links: candidate scraping, URL normalization, and
// extension-based filtering.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// hrefPattern scans raw markup for href attributes. The pattern scan backs
// up the structural parse so links survive even in malformed or
// browser-rendered output the parser mangles. Quoted attributes only, so
// quoted hrefs with spaces stay intact; unquoted hrefs are covered by the
// structural parse.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

// Candidates returns the union of hyperlink targets found by the structural
// parse and by the raw pattern scan, in first-seen order. Duplicates across
// the two sources are collapsed here; duplicates that only converge after
// normalization are collapsed later by Links.
func Candidates(htmlContent string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(href string) {
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		out = append(out, href)
	}

	// Structural parse. goquery tolerates broken markup, so a parse error
	// here is rare; the pattern scan below still runs regardless.
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent)); err == nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				add(href)
			}
		})
	}

	for _, m := range hrefPattern.FindAllStringSubmatch(htmlContent, -1) {
		add(m[1])
	}

	return out
}

// Links runs the full pipeline: scrape candidates, normalize each against
// baseURL, filter by extension, then deduplicate and sort. The returned
// order is lexicographic by URL, so downstream processing and logging are
// deterministic for identical input HTML.
func Links(htmlContent, baseURL string, allowed AllowSet) []ResolvedLink {
	unique := make(map[string]ResolvedLink)
	for _, raw := range Candidates(htmlContent) {
		abs, ok := Normalize(raw, baseURL)
		if !ok {
			continue
		}
		link, ok := Accept(abs, allowed)
		if !ok {
			continue
		}
		unique[link.URL] = link
	}

	links := make([]ResolvedLink, 0, len(unique))
	for _, link := range unique {
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].URL < links[j].URL })
	return links
}

// Images returns the absolute URLs of embedded images, deduplicated in
// first-seen order. Used by the page localizer.
func Images(htmlContent, baseURL string) []string {
	seen := make(map[string]bool)
	var out []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		abs, ok := Normalize(src, baseURL)
		if !ok || seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	})
	return out
}

// Title returns the trimmed text of the page's <title> element, or "" when
// the page has none.
func Title(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
