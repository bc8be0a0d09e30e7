package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export-csv [path]",
	Short: "Export all leads to CSV or XLSX",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Export.Path
		if len(args) > 0 {
			path = args[0]
		}
		format, _ := cmd.Flags().GetString("format")

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := export.Leads(ctx, st, path, format)
		if err != nil {
			return eris.Wrap(err, "export-csv")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads to %s\n", n, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "", "output format: csv or xlsx (default from extension)")
	rootCmd.AddCommand(exportCmd)
}
