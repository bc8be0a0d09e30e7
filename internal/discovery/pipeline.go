package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

// Pipeline chains the sweep, dedupe, premium filter and upsert.
type Pipeline struct {
	Aggregator *Aggregator
	Policy     PremiumPolicy
	Upserter   *Upserter
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(g google.Client, s store.Store, cfg *config.Config) *Pipeline {
	return &Pipeline{
		Aggregator: NewAggregator(g, cfg),
		Policy:     NewPremiumPolicy(cfg.Search),
		Upserter:   NewUpserter(s),
	}
}

// PipelineResult summarizes one scrape run.
type PipelineResult struct {
	Sweep    *SweepResult
	Unique   int
	Accepted int
	Upsert   *UpsertResult
}

// Run sweeps queries and upserts the accepted places. A positive limit caps
// the number of places handed to the upsert.
func (p *Pipeline) Run(ctx context.Context, queries []string, limit int) (*PipelineResult, error) {
	sweep, err := p.Aggregator.Run(ctx, queries)
	result := &PipelineResult{Sweep: sweep}
	if err != nil {
		return result, err
	}

	unique := Dedupe(sweep.Places)
	result.Unique = len(unique)

	accepted := p.Policy.Filter(unique)
	result.Accepted = len(accepted)
	if limit > 0 && len(accepted) > limit {
		zap.L().Info("limiting places to upsert", zap.Int("accepted", len(accepted)), zap.Int("limit", limit))
		accepted = accepted[:limit]
	}

	up, err := p.Upserter.Upsert(ctx, accepted)
	result.Upsert = up
	return result, err
}
