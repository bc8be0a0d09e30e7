package outreach

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// ErrNotEligible is returned when a lead cannot receive a step.
var ErrNotEligible = eris.New("outreach: lead not eligible")

// Campaign sends the ordered email steps and records every attempt.
type Campaign struct {
	store     store.Store
	templates *Templates
	mailer    Mailer
	cfg       config.CampaignConfig
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewCampaign creates a Campaign.
func NewCampaign(s store.Store, t *Templates, m Mailer, cfg config.CampaignConfig) *Campaign {
	return &Campaign{
		store:     s,
		templates: t,
		mailer:    m,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     resilience.Sleep,
	}
}

// Eligible reports whether lead may be sent step.
func Eligible(lead *model.Lead, step int) error {
	if !model.ValidStep(step) {
		return eris.Wrapf(ErrInvalidStep, "outreach: step %d", step)
	}
	if err := lead.CheckStep(step); err != nil {
		return eris.Wrapf(ErrNotEligible, "outreach: lead %s: %s", lead.ID, err.Error())
	}
	return nil
}

// Send renders and sends step to lead and records the interaction. A
// transport failure is recorded as a failed interaction and returned; the
// lead is left unchanged so the step can be retried.
func (c *Campaign) Send(ctx context.Context, lead *model.Lead, step int) (*model.Interaction, error) {
	if err := Eligible(lead, step); err != nil {
		return nil, err
	}

	msg, err := c.templates.Render(step, NewVars(lead, c.cfg, step))
	if err != nil {
		return nil, err
	}

	it := &model.Interaction{
		LeadID:          lead.ID,
		Channel:         model.ChannelEmail,
		Step:            step,
		MessageTemplate: msg.Template,
		MessageContent:  msg.Content(),
		SentAt:          c.now(),
		Status:          model.InteractionSent,
	}

	messageID, sendErr := c.mailer.Send(ctx, Envelope{To: *lead.Email, Message: msg})
	var progress *model.LeadProgress
	if sendErr != nil {
		reason := sendErr.Error()
		it.Status = model.InteractionFailed
		it.ErrorMessage = &reason
	} else {
		it.ExternalID = &messageID
		p := lead.ProgressAfter(step)
		progress = &p
	}
	metrics.RecordSend(step, string(it.Status))

	if err := c.store.RecordOutreach(ctx, it, progress); err != nil {
		return it, eris.Wrap(err, "outreach: record interaction")
	}
	if sendErr != nil {
		return it, eris.Wrapf(sendErr, "outreach: send step %d", step)
	}

	lead.LastStepCompleted = &progress.LastStepCompleted
	lead.Status = progress.Status
	return it, nil
}

// RunStep sends step to up to limit eligible leads, pausing between sends.
func (c *Campaign) RunStep(ctx context.Context, step, limit int) (*model.BatchStats, error) {
	if !model.ValidStep(step) {
		return nil, eris.Wrapf(ErrInvalidStep, "outreach: step %d", step)
	}
	log := zap.L().With(zap.String("component", "campaign"), zap.Int("step", step))

	leads, err := c.store.ListLeads(ctx, store.LeadFilter{EligibleForStep: &step, Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "outreach: list eligible leads")
	}
	log.Info("starting campaign batch", zap.Int("leads", len(leads)), zap.Bool("test_mode", c.cfg.TestMode))

	stats := &model.BatchStats{}
	delay := time.Duration(c.cfg.SendDelaySecs) * time.Second
	for i := range leads {
		lead := &leads[i]
		if i > 0 {
			if err := c.sleep(ctx, delay); err != nil {
				return stats, eris.Wrap(err, "outreach: interrupted")
			}
		}

		_, err := c.Send(ctx, lead, step)
		switch {
		case err == nil:
			stats.Record(model.OutcomeSucceeded)
			log.Info("email sent", zap.String("lead", lead.CompanyName), zap.String("email", *lead.Email))
		case errors.Is(err, ErrNotEligible), errors.Is(err, store.ErrConflict):
			stats.Record(model.OutcomeSkipped)
			log.Info("lead skipped", zap.String("lead", lead.CompanyName), zap.Error(err))
		default:
			if ctx.Err() != nil {
				return stats, eris.Wrap(ctx.Err(), "outreach: interrupted")
			}
			stats.Fail(lead.CompanyName, err)
			log.Warn("email send failed", zap.String("lead", lead.CompanyName), zap.Error(err))
		}
	}

	log.Info("campaign batch complete",
		zap.Int("processed", stats.Processed),
		zap.Int("sent", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}
