package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/paper-annotator/internal/fetch"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

const page = `<!doctype html>
<html>
<head>
  <title>Paper</title>
  <meta name="description" content="ignored">
  <style>body { color: red; }</style>
</head>
<body>
  <script>window.tracking = true;</script>
  <h1>AlphaFold</h1>
  <p>Predicts <strong>protein structure</strong> from sequence.</p>
  <noscript>enable javascript</noscript>
</body>
</html>`

func TestFetch_ConvertsBodyToMarkdown(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	md, err := fetch.New(fetch.Config{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, md, "# AlphaFold")
	assert.Contains(t, md, "**protein structure**")
	assert.NotContains(t, md, "tracking")
	assert.NotContains(t, md, "color: red")
	assert.NotContains(t, md, "enable javascript")
	assert.Equal(t, fetch.DefaultUserAgent, gotUA)
}

func TestFetch_CustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<p>hi</p>"))
	}))
	defer srv.Close()

	_, err := fetch.New(fetch.Config{UserAgent: "annotator-test"}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "annotator-test", gotUA)
}

func TestFetch_PlainTextPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  <b>not html</b>\n"))
	}))
	defer srv.Close()

	md, err := fetch.New(fetch.Config{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<b>not html</b>", md)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fetch.New(fetch.Config{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *core.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, srv.URL, fe.URL)
	assert.Contains(t, err.Error(), "http 404")
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><script>x()</script></body></html>"))
	}))
	defer srv.Close()

	_, err := fetch.New(fetch.Config{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fetch.ErrEmptyContent))
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := fetch.New(fetch.Config{Timeout: time.Second}).Fetch(context.Background(), url)
	var fe *core.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.StatusCode)
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := fetch.New(fetch.Config{}).Fetch(context.Background(), "://nope")
	var fe *core.FetchError
	require.ErrorAs(t, err, &fe)
}

func TestFetch_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := fetch.New(fetch.Config{}).Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_CapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	md, err := fetch.New(fetch.Config{MaxBytes: 10}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 10), md)
}
