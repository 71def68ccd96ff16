package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates_UnionOfParserAndPattern(t *testing.T) {
	// The second href hides inside a comment, invisible to the structural
	// parse but caught by the pattern scan.
	html := `
		<html><body>
			<a href="/files/a.pdf">A</a>
			<!-- <a href="/files/b.pdf">B</a> -->
		</body></html>
	`

	candidates := Candidates(html)
	assert.Contains(t, candidates, "/files/a.pdf")
	assert.Contains(t, candidates, "/files/b.pdf")
}

func TestCandidates_UnquotedHref(t *testing.T) {
	// The pattern scan only matches quoted attributes; unquoted ones come
	// in through the structural parse.
	html := `<html><body><a href=/files/a.pdf>A</a></body></html>`

	candidates := Candidates(html)
	assert.Contains(t, candidates, "/files/a.pdf")
}

func TestCandidates_QuotedHrefWithSpaces(t *testing.T) {
	html := `<a href="/files/yearly report.pdf">R</a>`

	candidates := Candidates(html)
	assert.Contains(t, candidates, "/files/yearly report.pdf")
}

func TestCandidates_NoDuplicatesAcrossSources(t *testing.T) {
	html := `<a href="/files/a.pdf">A</a>`

	candidates := Candidates(html)
	assert.Equal(t, []string{"/files/a.pdf"}, candidates)
}

func TestLinks_DeduplicatesAfterNormalization(t *testing.T) {
	// Three raw forms of the same absolute URL.
	html := `
		<a href="https://site.example/files/a.pdf">one</a>
		<a href="/files/a.pdf">two</a>
		<a href="//site.example/files/a.pdf">three</a>
	`

	links := Links(html, "https://site.example/page", defaultAllow())
	require.Len(t, links, 1)
	assert.Equal(t, "https://site.example/files/a.pdf", links[0].URL)
}

func TestLinks_SortedLexicographically(t *testing.T) {
	html := `
		<a href="/c.pdf">c</a>
		<a href="/a.zip">a</a>
		<a href="/b.pdf">b</a>
	`

	links := Links(html, "https://site.example/", defaultAllow())
	require.Len(t, links, 3)
	assert.Equal(t, "https://site.example/a.zip", links[0].URL)
	assert.Equal(t, "https://site.example/b.pdf", links[1].URL)
	assert.Equal(t, "https://site.example/c.pdf", links[2].URL)
}

func TestLinks_FiltersByExtension(t *testing.T) {
	html := `
		<a href="/doc.pdf">doc</a>
		<a href="/pic.png">pic</a>
		<a href="/about">about</a>
		<a href="mailto:a@example.com">mail</a>
	`

	links := Links(html, "https://site.example/", defaultAllow())
	require.Len(t, links, 1)
	assert.Equal(t, "https://site.example/doc.pdf", links[0].URL)
}

func TestLinks_EmptyPage(t *testing.T) {
	links := Links("<html><body>nothing here</body></html>", "https://site.example/", defaultAllow())
	assert.Empty(t, links)
}

func TestImages_ResolvesAndDeduplicates(t *testing.T) {
	html := `
		<img src="/img/logo.png">
		<img src="https://site.example/img/logo.png">
		<img src="photo.jpg">
	`

	imgs := Images(html, "https://site.example/dir/page.html")
	require.Len(t, imgs, 2)
	assert.Contains(t, imgs, "https://site.example/img/logo.png")
	assert.Contains(t, imgs, "https://site.example/dir/photo.jpg")
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "My Page", Title("<html><head><title>  My Page </title></head></html>"))
	assert.Equal(t, "", Title("<html><head></head></html>"))
}
