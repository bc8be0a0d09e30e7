// Package scrape fetches website pages and reduces them to plain text.
package scrape

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultMaxBodyBytes = 1 << 20

// Page is one fetched website page.
type Page struct {
	URL        string
	StatusCode int
	HTML       string
}

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPFetcher fetches pages over net/http with a browser User-Agent and
// retries transient failures a fixed number of times.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	retry     resilience.RetryConfig
}

// NewHTTPFetcher creates an HTTPFetcher from scrape settings.
func NewHTTPFetcher(cfg config.ScrapeConfig) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		userAgent: userAgent,
		maxBody:   maxBody,
		retry: resilience.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			Delay:      time.Duration(cfg.RetryDelayMs) * time.Millisecond,
			OnRetry:    resilience.RetryLogger("scrape", "fetch"),
		},
	}
}

// Fetch retrieves url, retrying timeouts, dropped connections, 429 and 5xx
// responses.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	return resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*Page, error) {
		return f.fetchOnce(ctx, url)
	})
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "scrape: read body"), 0)
	}

	if resp.StatusCode >= 400 {
		err := eris.Errorf("scrape: status %d for %s", resp.StatusCode, url)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return &Page{
		URL:        url,
		StatusCode: resp.StatusCode,
		HTML:       decode(body, resp.Header.Get("Content-Type")),
	}, nil
}

// decode converts body to UTF-8 using the declared charset, falling back to
// sniffing meta tags and content.
func decode(body []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		if enc, err := htmlindex.Get(params["charset"]); err == nil {
			if out, err := enc.NewDecoder().Bytes(body); err == nil {
				return string(out)
			}
		}
	}

	enc, _, _ := charset.DetermineEncoding(body, contentType)
	out, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return string(body)
	}
	return string(out)
}
