package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

// DetailsEnricher fills missing website and phone from Place Details.
type DetailsEnricher struct {
	store  store.Store
	google google.Client
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewDetailsEnricher creates a DetailsEnricher that pauses delay between calls.
func NewDetailsEnricher(s store.Store, g google.Client, delay time.Duration) *DetailsEnricher {
	return &DetailsEnricher{
		store:  s,
		google: g,
		delay:  delay,
		sleep:  resilience.Sleep,
	}
}

// Run enriches up to limit search leads that miss a website or phone and
// carry a place reference. Only missing fields are written.
func (d *DetailsEnricher) Run(ctx context.Context, limit int) (*model.BatchStats, error) {
	log := zap.L().With(zap.String("component", "details_enricher"))

	leads, err := d.store.ListLeads(ctx, store.LeadFilter{
		Source:                model.SourceGoogleMaps,
		MissingWebsiteOrPhone: true,
		HasPlaceRef:           true,
		Limit:                 limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "details: list leads")
	}
	log.Info("leads to enrich", zap.Int("count", len(leads)))

	stats := &model.BatchStats{}
	for i := range leads {
		lead := &leads[i]
		placeID, ok := lead.PlaceRef()
		if !ok {
			log.Warn("no place id for lead", zap.String("lead", lead.CompanyName))
			stats.Record(model.OutcomeSkipped)
			continue
		}

		if i > 0 {
			if err := d.sleep(ctx, d.delay); err != nil {
				return stats, eris.Wrap(err, "details: interrupted")
			}
		}

		outcome, err := d.enrichOne(ctx, lead, placeID)
		if err != nil {
			if errors.Is(err, google.ErrMissingAPIKey) {
				return stats, err
			}
			if ctx.Err() != nil {
				return stats, eris.Wrap(ctx.Err(), "details: interrupted")
			}
			stats.Fail(lead.CompanyName, err)
			log.Warn("place details enrichment failed",
				zap.String("lead", lead.CompanyName),
				zap.String("place_id", placeID),
				zap.Error(err),
			)
			continue
		}
		stats.Record(outcome)
	}

	log.Info("place details enrichment complete",
		zap.Int("processed", stats.Processed),
		zap.Int("updated", stats.Succeeded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (d *DetailsEnricher) enrichOne(ctx context.Context, lead *model.Lead, placeID string) (model.Outcome, error) {
	details, err := d.google.PlaceDetails(ctx, placeID)
	if err != nil {
		return model.OutcomeFailed, err
	}

	var update store.ContactUpdate
	if !lead.HasWebsite() && details.Website != "" {
		update.WebsiteURL = &details.Website
	}
	if !lead.HasPhone() && details.FormattedPhoneNumber != "" {
		update.Phone = &details.FormattedPhoneNumber
	}
	if update.WebsiteURL == nil && update.Phone == nil {
		zap.L().Debug("no new contact data", zap.String("lead", lead.CompanyName))
		return model.OutcomeSkipped, nil
	}

	if err := d.store.UpdateLeadContact(ctx, lead.ID, update); err != nil {
		return model.OutcomeFailed, eris.Wrap(err, "details: update contact")
	}
	zap.L().Info("lead contact updated",
		zap.String("lead", lead.CompanyName),
		zap.Bool("website", update.WebsiteURL != nil),
		zap.Bool("phone", update.Phone != nil),
	)
	return model.OutcomeSucceeded, nil
}
