package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/store"
)

const defaultCampaignLimit = 10

var runCampaignCmd = &cobra.Command{
	Use:   "run-campaign [step] [limit]",
	Short: "Send one campaign step to eligible leads",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := intArg(args, 0, "step", model.FirstStep)
		if err != nil {
			return err
		}
		limit, err := intArg(args, 1, "limit", defaultCampaignLimit)
		if err != nil {
			return err
		}
		if err := cfg.Validate(config.ModeCampaign); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		c, err := newCampaign(st)
		if err != nil {
			return err
		}
		stats, err := c.RunStep(ctx, step, limit)
		if stats != nil {
			formatBatch(cmd.OutOrStdout(), fmt.Sprintf("campaign step %d", step), stats)
		}
		if err != nil {
			return eris.Wrap(err, "run-campaign")
		}
		return nil
	},
}

var sendTestEmailCmd = &cobra.Command{
	Use:   "send-test-email <lead-id>",
	Short: "Send one campaign step to a single lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, _ := cmd.Flags().GetInt("step")
		if err := cfg.Validate(config.ModeCampaign); err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lead, err := st.GetLead(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "send-test-email: get lead %s", args[0])
		}
		c, err := newCampaign(st)
		if err != nil {
			return err
		}
		it, err := c.Send(ctx, lead, step)
		if err != nil {
			return eris.Wrapf(err, "send-test-email: lead %s", lead.ID)
		}

		zap.L().Info("test email sent",
			zap.String("lead", lead.CompanyName),
			zap.Int("step", step),
			zap.Bool("test_mode", cfg.Campaign.TestMode),
		)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", it.MessageContent)
		return nil
	},
}

var testEmailConfigCmd = &cobra.Command{
	Use:   "test-email-config",
	Short: "Validate and print the SMTP configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cfg.Validate(config.ModeSMTP)
		formatSMTP(cmd, cfg.SMTP, cfg.Campaign)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "SMTP configuration OK")
		return nil
	},
}

func newCampaign(st store.Store) (*outreach.Campaign, error) {
	t, err := outreach.LoadTemplates(cfg.Campaign.TemplatesPath)
	if err != nil {
		return nil, err
	}
	m := outreach.NewMailer(cfg.SMTP, cfg.Campaign)
	return outreach.NewCampaign(st, t, m, cfg.Campaign), nil
}

func formatSMTP(cmd *cobra.Command, smtp config.SMTPConfig, campaign config.CampaignConfig) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Host:\t%s\n", orNone(smtp.Host))
	_, _ = fmt.Fprintf(w, "Port:\t%d\n", smtp.Port)
	_, _ = fmt.Fprintf(w, "User:\t%s\n", orNone(smtp.User))
	_, _ = fmt.Fprintf(w, "Password:\t%s\n", mask(smtp.Password))
	_, _ = fmt.Fprintf(w, "From:\t%s\n", orNone(smtp.Sender()))
	_, _ = fmt.Fprintf(w, "Test mode:\t%t\n", campaign.TestMode)
	_ = w.Flush()
}

func init() {
	sendTestEmailCmd.Flags().Int("step", model.FirstStep, "campaign step to send")
	rootCmd.AddCommand(runCampaignCmd, sendTestEmailCmd, testEmailConfigCmd)
}
