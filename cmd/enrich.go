package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/scrape"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var enrichEmailsCmd = &cobra.Command{
	Use:   "enrich-emails [limit]",
	Short: "Scrape lead websites for contact emails",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := intArg(args, 0, "limit", 0)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		leadID, _ := cmd.Flags().GetString("lead")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if leadID != "" {
			return enrichOne(ctx, cmd, st, leadID, dryRun)
		}

		stats, err := newEnricher(st).EnrichLeads(ctx, limit, dryRun)
		if stats != nil {
			formatEnrichStats(cmd.OutOrStdout(), stats)
		}
		if err != nil {
			return eris.Wrap(err, "enrich-emails")
		}
		return nil
	},
}

var testEmailCmd = &cobra.Command{
	Use:   "test-email <lead-id>",
	Short: "Scrape one lead's website for contact emails",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return enrichOne(ctx, cmd, st, args[0], dryRun)
	},
}

var enrichDetailsCmd = &cobra.Command{
	Use:   "enrich-details [limit]",
	Short: "Fill missing website and phone from Google Place Details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ModeDetails); err != nil {
			return err
		}
		limit, err := intArg(args, 0, "limit", 0)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		d := enrich.NewDetailsEnricher(st, initGoogle(), time.Duration(cfg.Enrich.DetailsDelayMs)*time.Millisecond)
		stats, err := d.Run(ctx, limit)
		if stats != nil {
			formatBatch(cmd.OutOrStdout(), "details enrichment", stats)
		}
		if err != nil {
			return eris.Wrap(err, "enrich-details")
		}
		return nil
	},
}

func newEnricher(st store.Store) *enrich.Enricher {
	x := enrich.NewExtractor(scrape.NewHTTPFetcher(cfg.Scrape), time.Duration(cfg.Scrape.PageDelayMs)*time.Millisecond)
	return enrich.NewEnricher(st, x, time.Duration(cfg.Enrich.LeadDelayMs)*time.Millisecond)
}

func enrichOne(ctx context.Context, cmd *cobra.Command, st store.Store, id string, dryRun bool) error {
	res, err := newEnricher(st).EnrichLead(ctx, id, dryRun)
	if err != nil {
		return eris.Wrapf(err, "enrich lead %s", id)
	}
	formatLeadResult(cmd.OutOrStdout(), res, dryRun)
	return nil
}

func init() {
	enrichEmailsCmd.Flags().Bool("dry-run", false, "report found emails without storing them")
	enrichEmailsCmd.Flags().String("lead", "", "enrich a single lead by ID")
	testEmailCmd.Flags().Bool("dry-run", false, "report found emails without storing them")
	rootCmd.AddCommand(enrichEmailsCmd, testEmailCmd, enrichDetailsCmd)
}
