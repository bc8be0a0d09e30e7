package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run scrape, email enrichment, campaign step 0 and export in sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		maxQueries, _ := cmd.Flags().GetInt("max-queries")
		if err := cfg.Validate(config.ModeScrape); err != nil {
			return err
		}
		if err := cfg.Validate(config.ModeCampaign); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()
		cmd.SetContext(ctx)
		log := zap.L().With(zap.String("component", "auto"))
		out := cmd.OutOrStdout()

		log.Info("stage: migrate")
		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "auto: migrate")
		}
		defer st.Close() //nolint:errcheck

		log.Info("stage: scrape")
		res, err := runScrape(ctx, st, limit, maxQueries)
		if res != nil {
			formatScrape(out, res)
		}
		if err != nil {
			return eris.Wrap(err, "auto")
		}

		log.Info("stage: enrich emails")
		stats, err := newEnricher(st).EnrichLeads(ctx, 0, false)
		if stats != nil {
			formatEnrichStats(out, stats)
		}
		if err != nil {
			return eris.Wrap(err, "auto: enrich emails")
		}

		log.Info("stage: campaign", zap.Int("step", model.FirstStep))
		c, err := newCampaign(st)
		if err != nil {
			return err
		}
		batch, err := c.RunStep(ctx, model.FirstStep, defaultCampaignLimit)
		if batch != nil {
			formatBatch(out, fmt.Sprintf("campaign step %d", model.FirstStep), batch)
		}
		if err != nil {
			return eris.Wrap(err, "auto: campaign")
		}

		log.Info("stage: export")
		n, err := export.Leads(ctx, st, cfg.Export.Path, "")
		if err != nil {
			return eris.Wrap(err, "auto: export")
		}
		_, _ = fmt.Fprintf(out, "exported %d leads to %s\n", n, cfg.Export.Path)

		log.Info("stage: status")
		return printStatus(cmd, st)
	},
}

func init() {
	autoCmd.Flags().Int("limit", 0, "max places to upsert (0 = all)")
	autoCmd.Flags().Int("max-queries", 0, "max search queries to issue (0 = all)")
	rootCmd.AddCommand(autoCmd)
}
