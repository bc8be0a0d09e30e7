package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

// maxPagesPerQuery guards against a continuation token that never ends.
// The API itself stops after three pages.
const maxPagesPerQuery = 10

// SweepResult is the raw output of a search sweep.
type SweepResult struct {
	Places        []google.Place
	Queries       int
	FailedQueries int
	Pages         int
}

// Aggregator issues search queries and follows their pagination.
type Aggregator struct {
	google     google.Client
	language   string
	limiter    *rate.Limiter
	tokenDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewAggregator creates an Aggregator with the given client and settings.
func NewAggregator(g google.Client, cfg *config.Config) *Aggregator {
	limit := rate.Inf
	if d := cfg.Search.QueryDelay(); d > 0 {
		limit = rate.Every(d)
	}
	return &Aggregator{
		google:     g,
		language:   cfg.Google.Language,
		limiter:    rate.NewLimiter(limit, 1),
		tokenDelay: cfg.Search.PageTokenDelay(),
		sleep:      resilience.Sleep,
	}
}

// Run issues every query in order. A failed query is logged and counted and
// the sweep moves on; only a missing API key or cancellation stops it.
func (a *Aggregator) Run(ctx context.Context, queries []string) (*SweepResult, error) {
	log := zap.L().With(zap.String("component", "aggregator"))
	result := &SweepResult{}

	for i, query := range queries {
		if err := a.limiter.Wait(ctx); err != nil {
			return result, eris.Wrap(err, "aggregator: rate limit wait")
		}

		result.Queries++
		places, pages, err := a.search(ctx, query)
		result.Pages += pages
		if err != nil {
			if errors.Is(err, google.ErrMissingAPIKey) {
				return result, err
			}
			if ctx.Err() != nil {
				return result, eris.Wrap(ctx.Err(), "aggregator: sweep interrupted")
			}
			result.FailedQueries++
			metrics.RecordSearchQuery(false)
			log.Warn("search query failed", zap.String("query", query), zap.Error(err))
			continue
		}

		metrics.RecordSearchQuery(true)
		metrics.RecordPlacesFetched(len(places))
		result.Places = append(result.Places, places...)
		log.Debug("search query complete",
			zap.String("query", query),
			zap.Int("results", len(places)),
			zap.Int("pages", pages),
		)

		if (i+1)%10 == 0 {
			log.Info("progress", zap.Int("queries", i+1), zap.Int("total_queries", len(queries)))
		}
	}

	log.Info("search sweep complete",
		zap.Int("queries", result.Queries),
		zap.Int("failed_queries", result.FailedQueries),
		zap.Int("pages", result.Pages),
		zap.Int("places", len(result.Places)),
	)
	return result, nil
}

// search fetches all pages of one query. Places from a query that fails
// part way are discarded.
func (a *Aggregator) search(ctx context.Context, query string) ([]google.Place, int, error) {
	var (
		places []google.Place
		pages  int
	)
	req := google.TextSearchRequest{Query: query, Language: a.language}

	for pages < maxPagesPerQuery {
		resp, err := a.google.TextSearch(ctx, req)
		if err != nil {
			return nil, pages, err
		}
		pages++
		places = append(places, resp.Results...)

		if resp.NextPageToken == "" {
			break
		}
		// Continuation tokens are not valid immediately.
		if err := a.sleep(ctx, a.tokenDelay); err != nil {
			return nil, pages, err
		}
		req = google.TextSearchRequest{PageToken: resp.NextPageToken}
	}

	return places, pages, nil
}
