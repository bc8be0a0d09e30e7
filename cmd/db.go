package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and load the seed fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		seed, _ := cmd.Flags().GetBool("seed")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("schema migrated", zap.String("driver", cfg.Store.Driver))
		if !seed {
			return nil
		}

		data, err := store.LoadSeed()
		if err != nil {
			return err
		}
		res, err := store.Seed(ctx, st, data)
		if err != nil {
			return eris.Wrap(err, "init: seed")
		}
		zap.L().Info("seed loaded",
			zap.Int("leads", res.Leads),
			zap.Int("skipped", res.Skipped),
			zap.Int("blacklist", res.Blacklist),
		)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return eris.New("reset: refusing to drop data without --yes")
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Reset(ctx); err != nil {
			return eris.Wrap(err, "reset")
		}
		zap.L().Warn("all tables dropped and recreated")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lead counts by status and total interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return printStatus(cmd, st)
	},
}

func printStatus(cmd *cobra.Command, st store.Store) error {
	ctx := cmd.Context()
	counts, err := st.CountLeadsByStatus(ctx)
	if err != nil {
		return eris.Wrap(err, "status: count leads")
	}
	interactions, err := st.CountInteractions(ctx)
	if err != nil {
		return eris.Wrap(err, "status: count interactions")
	}
	formatStatus(cmd.OutOrStdout(), counts, interactions)
	return nil
}

func init() {
	initCmd.Flags().Bool("seed", true, "load seed leads and blacklist rules")
	resetCmd.Flags().Bool("yes", false, "confirm dropping all data")
	rootCmd.AddCommand(initCmd, resetCmd, statusCmd)
}
