package main

import (
	"context"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/metrics"
)

var cfg *config.Config

// stopMetrics shuts down the metrics server when one is running.
var stopMetrics = func() {}

var rootCmd = &cobra.Command{
	Use:   "leadgen-cli",
	Short: "Dental clinic lead generation pipeline",
	Long:  "Finds premium dental clinics on Google Places, scrapes their websites for contact emails, runs a three-step email campaign and exports the leads.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		if cfg.Metrics.Addr != "" {
			startMetrics(cmd.Context(), cfg.Metrics.Addr)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopMetrics()
		_ = zap.L().Sync()
	},
}

func startMetrics(parent context.Context, addr string) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := metrics.Serve(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("metrics server failed", zap.Error(err))
		}
	}()
	stopMetrics = func() {
		cancel()
		<-done
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
