package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var (
	// ErrNoWebsite is returned when a lead has no website to scan.
	ErrNoWebsite = eris.New("enrich: lead has no website url")
	// ErrHasEmail is returned when a lead already has an email.
	ErrHasEmail = eris.New("enrich: lead already has email")
)

// EnrichStats summarizes a batch email enrichment.
type EnrichStats struct {
	Processed     int               `json:"processed"`
	EmailsFound   int               `json:"emails_found"`
	EmailsUpdated int               `json:"emails_updated"`
	Skipped       int               `json:"skipped"`
	Errors        int               `json:"errors"`
	Failures      []model.ItemError `json:"failures,omitempty"`
}

// LeadResult is the outcome of enriching one lead.
type LeadResult struct {
	Lead        *model.Lead
	FoundEmails []string
	BestEmail   string
	Updated     bool
	Suggestions []string
}

// Enricher finds emails for leads that have a website but no email.
type Enricher struct {
	store     store.Store
	extractor *Extractor
	leadDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewEnricher creates an Enricher that pauses leadDelay between leads.
func NewEnricher(s store.Store, x *Extractor, leadDelay time.Duration) *Enricher {
	return &Enricher{
		store:     s,
		extractor: x,
		leadDelay: leadDelay,
		sleep:     resilience.Sleep,
	}
}

// EnrichLeads scans up to limit leads (all when limit <= 0). In dry-run mode
// found emails are reported but not stored.
func (e *Enricher) EnrichLeads(ctx context.Context, limit int, dryRun bool) (*EnrichStats, error) {
	log := zap.L().With(zap.String("component", "enricher"), zap.Bool("dry_run", dryRun))

	leads, err := e.store.ListLeads(ctx, store.LeadFilter{
		HasWebsite: boolPtr(true),
		HasEmail:   boolPtr(false),
		Limit:      limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "enricher: list leads")
	}
	log.Info("leads to enrich", zap.Int("count", len(leads)))

	stats := &EnrichStats{}
	for i := range leads {
		lead := &leads[i]
		if i > 0 {
			if err := e.sleep(ctx, e.leadDelay); err != nil {
				return stats, eris.Wrap(err, "enricher: interrupted")
			}
		}

		res, err := e.enrich(ctx, lead, dryRun)
		if err != nil {
			if ctx.Err() != nil {
				return stats, eris.Wrap(ctx.Err(), "enricher: interrupted")
			}
			stats.Errors++
			stats.Failures = append(stats.Failures, model.ItemError{Item: lead.CompanyName, Error: err.Error()})
			log.Warn("lead enrichment failed", zap.String("lead", lead.CompanyName), zap.Error(err))
			continue
		}

		stats.Processed++
		switch {
		case res.BestEmail == "":
			stats.Skipped++
			log.Info("no suitable email found",
				zap.String("lead", lead.CompanyName),
				zap.Strings("suggestions", head(res.Suggestions, 3)),
			)
		case res.Updated:
			stats.EmailsFound++
			stats.EmailsUpdated++
		case dryRun:
			stats.EmailsFound++
			log.Info("would update email", zap.String("lead", lead.CompanyName), zap.String("email", res.BestEmail))
		default:
			// Email found but already used by another lead.
			stats.EmailsFound++
			stats.Skipped++
		}
	}

	log.Info("email enrichment complete",
		zap.Int("processed", stats.Processed),
		zap.Int("emails_found", stats.EmailsFound),
		zap.Int("emails_updated", stats.EmailsUpdated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

// EnrichLead scans one lead's website. Outside dry-run a lead that already
// has an email is rejected with ErrHasEmail.
func (e *Enricher) EnrichLead(ctx context.Context, id string, dryRun bool) (*LeadResult, error) {
	lead, err := e.store.GetLead(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "enricher: get lead %s", id)
	}
	if !lead.HasWebsite() {
		return nil, ErrNoWebsite
	}
	if lead.HasEmail() && !dryRun {
		return nil, ErrHasEmail
	}
	return e.enrich(ctx, lead, dryRun)
}

func (e *Enricher) enrich(ctx context.Context, lead *model.Lead, dryRun bool) (*LeadResult, error) {
	x, err := e.extractor.Extract(ctx, *lead.WebsiteURL)
	if err != nil {
		return nil, err
	}

	res := &LeadResult{
		Lead:        lead,
		FoundEmails: x.Emails,
	}
	best, ok := ChooseBest(x.Emails)
	if !ok {
		res.Suggestions = head(x.Suggestions, 3)
		return res, nil
	}
	res.BestEmail = best
	metrics.RecordEmailFound()

	if dryRun {
		return res, nil
	}

	if err := e.store.UpdateLeadEmail(ctx, lead.ID, best); err != nil {
		if errors.Is(err, store.ErrConflict) {
			zap.L().Info("email already assigned to another lead",
				zap.String("lead", lead.CompanyName),
				zap.String("email", best),
			)
			return res, nil
		}
		return nil, eris.Wrap(err, "enricher: update email")
	}
	res.Updated = true
	lead.Email = &best
	return res, nil
}

func boolPtr(b bool) *bool { return &b }

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
