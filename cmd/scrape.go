package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Search Google Places for premium clinics and store new leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ModeScrape); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		maxQueries, _ := cmd.Flags().GetInt("max-queries")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := runScrape(ctx, st, limit, maxQueries)
		if res != nil {
			formatScrape(cmd.OutOrStdout(), res)
		}
		return err
	},
}

// runScrape sweeps the configured queries and upserts accepted places.
func runScrape(ctx context.Context, st store.Store, limit, maxQueries int) (*discovery.PipelineResult, error) {
	queries := discovery.BuildQueries(cfg.Search)
	if maxQueries > 0 && maxQueries < len(queries) {
		queries = queries[:maxQueries]
	}

	p := discovery.NewPipeline(initGoogle(), st, cfg)
	res, err := p.Run(ctx, queries, limit)
	if err != nil {
		return res, eris.Wrap(err, "scrape")
	}
	return res, nil
}

func init() {
	scrapeCmd.Flags().Int("limit", 0, "max places to upsert (0 = all)")
	scrapeCmd.Flags().Int("max-queries", 0, "max search queries to issue (0 = all)")
	rootCmd.AddCommand(scrapeCmd)
}
