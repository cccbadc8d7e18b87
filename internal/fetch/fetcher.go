// Package fetch retrieves a URL and normalizes its HTML to markdown.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

// DefaultUserAgent is a desktop Chrome User-Agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrEmptyContent is returned when a page has no text left after cleanup.
var ErrEmptyContent = errors.New("empty content")

// Config configures the fetcher.
type Config struct {
	// Timeout bounds one HTTP exchange. Zero uses 30s; negative disables.
	Timeout time.Duration
	// MaxBytes caps the response body. Default: 10MB.
	MaxBytes  int64
	UserAgent string
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client *http.Client
}

func (c *Config) defaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Fetcher implements core.ContentFetcher over HTTP.
type Fetcher struct {
	client      *http.Client
	config      Config
	mdConverter *converter.Converter
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		}
	}
	return &Fetcher{
		client: client,
		config: cfg,
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Fetch retrieves url and returns its main content as markdown. Plain-text
// responses are returned as is. Every failure is a *core.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &core.FetchError{URL: url, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &core.FetchError{URL: url, Err: fmt.Errorf("http get: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &core.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("http %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return "", &core.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	var text string
	if isPlainText(resp.Header.Get("Content-Type")) {
		text = strings.TrimSpace(string(body))
	} else {
		text, err = f.htmlToMarkdown(body, url)
		if err != nil {
			return "", &core.FetchError{URL: url, Err: err}
		}
	}
	if text == "" {
		return "", &core.FetchError{URL: url, Err: ErrEmptyContent}
	}
	return text, nil
}

// htmlToMarkdown drops scripts, styles and meta tags, then converts the body.
func (f *Fetcher) htmlToMarkdown(body []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, meta, noscript").Remove()

	mainContent, err := doc.Find("body").First().Html()
	if err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	if strings.TrimSpace(mainContent) == "" {
		return "", nil
	}

	md, err := f.mdConverter.ConvertString(mainContent, converter.WithDomain(pageURL))
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func isPlainText(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/plain" || mt == "text/markdown"
}
