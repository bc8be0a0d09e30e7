// Package enrich fills in lead contact details from websites and place details.
package enrich

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/scrape"
)

// ContactPaths are fetched after the homepage.
var ContactPaths = []string{
	"/contact",
	"/contact-us",
	"/about",
	"/about-us",
	"/team",
	"/staff",
	"/enquiries",
	"/booking",
	"/appointments",
}

// SuggestionPrefixes build guessed addresses when a site lists none.
var SuggestionPrefixes = []string{
	"info", "contact", "hello", "enquiries", "appointments", "reception", "admin", "office",
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

var (
	placeholderDomains = []string{
		"example.com", "test.com", "domain.com", "yoursite.com", "website.com", "sample.com",
	}
	placeholderMarkers = []string{"lorem", "placeholder"}
)

// Extraction is the result of scanning one website.
type Extraction struct {
	Domain       string
	Emails       []string
	Suggestions  []string
	PagesFetched int
}

// Extractor scans a website's homepage and contact pages for emails.
type Extractor struct {
	fetcher scrape.Fetcher
	limiter *rate.Limiter
}

// NewExtractor creates an Extractor that waits pageDelay between requests.
func NewExtractor(f scrape.Fetcher, pageDelay time.Duration) *Extractor {
	limit := rate.Inf
	if pageDelay > 0 {
		limit = rate.Every(pageDelay)
	}
	return &Extractor{
		fetcher: f,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Extract fetches the site and returns the emails on its own domain. A page
// that fails to load is logged and skipped.
func (e *Extractor) Extract(ctx context.Context, website string) (*Extraction, error) {
	base, domain, err := NormalizeWebsite(website)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("component", "extractor"), zap.String("domain", domain))

	result := &Extraction{
		Domain:      domain,
		Suggestions: Suggestions(domain),
	}

	found := make(map[string]struct{})
	for _, pageURL := range candidatePages(base) {
		if err := e.limiter.Wait(ctx); err != nil {
			return result, eris.Wrap(err, "extractor: rate limit wait")
		}

		page, err := e.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, eris.Wrap(ctx.Err(), "extractor: interrupted")
			}
			metrics.RecordPageFetch(false)
			log.Debug("page fetch failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		metrics.RecordPageFetch(true)
		result.PagesFetched++

		emails := FindEmails(scrape.ExtractText(page.HTML))
		for _, email := range emails {
			found[email] = struct{}{}
		}
		if len(emails) > 0 {
			log.Debug("emails found on page", zap.String("url", pageURL), zap.Int("count", len(emails)))
		}
	}

	for email := range found {
		if onDomain(email, domain) {
			result.Emails = append(result.Emails, email)
		}
	}
	sort.Strings(result.Emails)

	log.Info("website scan complete",
		zap.Int("pages_fetched", result.PagesFetched),
		zap.Int("emails", len(result.Emails)),
	)
	return result, nil
}

// NormalizeWebsite returns the absolute site URL and its domain without a
// leading "www.".
func NormalizeWebsite(website string) (*url.URL, string, error) {
	raw := strings.TrimSpace(website)
	if raw == "" {
		return nil, "", eris.New("extractor: empty website url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", eris.Wrapf(err, "extractor: parse url %q", website)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, "", eris.Errorf("extractor: no host in %q", website)
	}
	return u, strings.TrimPrefix(host, "www."), nil
}

func candidatePages(base *url.URL) []string {
	pages := make([]string, 0, len(ContactPaths)+1)
	pages = append(pages, base.String())
	for _, p := range ContactPaths {
		pages = append(pages, base.ResolveReference(&url.URL{Path: p}).String())
	}
	return pages
}

// FindEmails returns the distinct lowercased email-shaped substrings of text
// that are not placeholders, in order of appearance.
func FindEmails(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(strings.TrimSpace(m))
		if seen[email] || IsPlaceholder(email) {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out
}

// IsPlaceholder reports whether email is template filler.
func IsPlaceholder(email string) bool {
	lower := strings.ToLower(email)
	for _, m := range placeholderMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	domain := domainOf(lower)
	for _, d := range placeholderDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// Suggestions returns common-prefix guesses for domain.
func Suggestions(domain string) []string {
	if domain == "" {
		return nil
	}
	out := make([]string, len(SuggestionPrefixes))
	for i, p := range SuggestionPrefixes {
		out[i] = p + "@" + domain
	}
	return out
}

func onDomain(email, domain string) bool {
	return strings.Contains(domainOf(email), domain)
}

func domainOf(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return ""
	}
	return email[i+1:]
}
