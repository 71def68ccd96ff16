package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := Page(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.False(t, result.Rendered)
}

func TestPage_InvalidURL(t *testing.T) {
	_, err := Page(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestPage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := Page(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestPage_SendsConfiguredHeaders(t *testing.T) {
	var gotUA, gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	opts := &Options{
		Timeout:   DefaultTimeout,
		UserAgent: "agent/1.0",
		Headers:   map[string]string{"Cookie": "session=abc"},
	}
	_, err := Page(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, "agent/1.0", gotUA)
	assert.Equal(t, "session=abc", gotCookie)
}

func TestShouldRender(t *testing.T) {
	shell := `<html><body><div id="app"></div></body></html>`
	assert.True(t, ShouldRender(shell))

	full := "<html><body><p>" + longText() + "</p></body></html>"
	assert.False(t, ShouldRender(full))
}

func TestClient_PlainFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>static</body></html>"))
	}))
	defer server.Close()

	client := NewClient(nil, false, false)
	client.render = func(context.Context, string, time.Duration) (string, error) {
		t.Fatal("render must not run when the browser is disabled")
		return "", nil
	}
	result, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "static")
	assert.False(t, result.Rendered)
}

func TestClient_NoEscalationForFullPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + longText() + "</p></body></html>"))
	}))
	defer server.Close()

	rendered := false
	client := NewClient(nil, true, false)
	client.render = func(context.Context, string, time.Duration) (string, error) {
		rendered = true
		return "<html></html>", nil
	}
	result, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, rendered, "a page with enough body text must not escalate")
	assert.False(t, result.Rendered)
}

func TestClient_EscalatesForShellPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="app"></div></body></html>`))
	}))
	defer server.Close()

	client := NewClient(nil, true, true)
	client.render = func(_ context.Context, url string, _ time.Duration) (string, error) {
		assert.Equal(t, server.URL, url)
		return "<html><body><a href='doc.pdf'>doc</a></body></html>", nil
	}
	result, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, result.Rendered)
	assert.Contains(t, result.HTML, "doc.pdf")
}

func TestClient_RenderFailureKeepsStaticContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="app">shell</div></body></html>`))
	}))
	defer server.Close()

	client := NewClient(nil, true, false)
	client.render = func(context.Context, string, time.Duration) (string, error) {
		return "", fmt.Errorf("no usable browser")
	}
	result, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, result.Rendered)
	assert.Contains(t, result.HTML, "shell")
}

func TestClient_RendersWhenStaticFetchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(nil, true, false)
	client.render = func(context.Context, string, time.Duration) (string, error) {
		return "<html><body>rendered</body></html>", nil
	}
	result, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, result.Rendered)
	assert.Contains(t, result.HTML, "rendered")
}

func longText() string {
	s := ""
	for len(s) < MinContentLength {
		s += "enough visible body text to look like a fully rendered page. "
	}
	return s
}
