package fetchkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func newTestFetcher(t *testing.T, opts ...Option) *Fetcher {
	t.Helper()
	f, err := New(append([]Option{WithImpersonation(false)}, opts...)...)
	require.NoError(t, err)
	return f
}

func htmlServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Get(t *testing.T) {
	srv := htmlServer(t, `<html><head><title> Acme Corp </title></head>
<body><h1>Welcome</h1><p>We build great products.</p></body></html>`)

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, page.URL())
	assert.Equal(t, http.StatusOK, page.StatusCode())

	title, ok := page.Title()
	assert.True(t, ok)
	assert.Equal(t, "Acme Corp", title)
}

func TestFetcher_GetSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, gotUA, "Chrome")
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetcher_GetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetcher_GetConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := newTestFetcher(t)
	_, err := f.Get(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetcher_GetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	f := newTestFetcher(t, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := f.Get(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetcher_GetDecodesLatin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String(
		`<html><head><title>Café Münster</title></head><body><p>crème brûlée</p></body></html>`)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte(raw))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	title, ok := page.Title()
	assert.True(t, ok)
	assert.Equal(t, "Café Münster", title)
	assert.Contains(t, page.Text(), "crème brûlée")
}

func TestFetcher_GetBodyCap(t *testing.T) {
	srv := htmlServer(t, `<html><body>`+strings.Repeat("x", 4096)+`</body></html>`)

	f := newTestFetcher(t, WithMaxBodySize(1024))
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Text()), 1024)
}

func TestPage_Query(t *testing.T) {
	srv := htmlServer(t, `<html><body>
<ul><li> first </li><li>second</li><li>third</li></ul>
<p class="note">a note</p></body></html>`)

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	nodes, err := page.Query("li")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "first", nodes[0].Text())
	assert.Equal(t, "second", nodes[1].Text())
	assert.Equal(t, "third", nodes[2].Text())

	nodes, err = page.Query("p.note")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a note", nodes[0].Text())
}

func TestPage_QueryNoMatches(t *testing.T) {
	srv := htmlServer(t, `<html><body><p>text</p></body></html>`)

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	nodes, err := page.Query(".does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestPage_QueryInvalidSelector(t *testing.T) {
	srv := htmlServer(t, `<html><body><p>text</p></body></html>`)

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = page.Query("p[[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selector")
}

func TestPage_TitleMissing(t *testing.T) {
	srv := htmlServer(t, `<html><body><p>no title here</p></body></html>`)

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	title, ok := page.Title()
	assert.False(t, ok)
	assert.Empty(t, title)
}

func TestPage_TextSkipsInvisibleSubtrees(t *testing.T) {
	srv := htmlServer(t, `<html><head><title>T</title>
<style>body { color: red; }</style>
<script>var hidden = "secret";</script></head>
<body><noscript>enable javascript</noscript>
<h1>Visible   heading</h1>
<p>Some
   paragraph text.</p></body></html>`)

	f := newTestFetcher(t)
	page, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	text := page.Text()
	assert.Contains(t, text, "Visible heading")
	assert.Contains(t, text, "Some paragraph text.")
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "enable javascript")
	// No leading/trailing whitespace, runs collapsed.
	assert.Equal(t, strings.TrimSpace(text), text)
	assert.NotContains(t, text, "  ")
}

func TestAvailable(t *testing.T) {
	assert.NoError(t, Available())
}
