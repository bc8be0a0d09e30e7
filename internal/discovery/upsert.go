package discovery

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

// UpsertResult reports what an upsert batch did.
type UpsertResult struct {
	model.BatchStats
	Created []model.Lead
}

// Upserter turns accepted places into cold leads.
type Upserter struct {
	store store.Store
}

// NewUpserter creates an Upserter backed by s.
func NewUpserter(s store.Store) *Upserter {
	return &Upserter{store: s}
}

// Upsert creates a lead per place unless one with the same company name
// exists or the name is blacklisted. Existing leads are not modified. Each
// create commits on its own; a store error fails that place only.
func (u *Upserter) Upsert(ctx context.Context, places []google.Place) (*UpsertResult, error) {
	log := zap.L().With(zap.String("component", "upsert"))
	result := &UpsertResult{}

	for _, place := range places {
		if err := ctx.Err(); err != nil {
			return result, eris.Wrap(err, "upsert: interrupted")
		}

		lead, outcome, err := u.upsertOne(ctx, place)
		metrics.RecordUpsert(outcome.String())
		switch outcome {
		case model.OutcomeSucceeded:
			result.Record(outcome)
			result.Created = append(result.Created, *lead)
		case model.OutcomeSkipped:
			result.Record(outcome)
		default:
			result.Fail(place.Name, err)
			log.Warn("lead upsert failed", zap.String("name", place.Name), zap.Error(err))
		}
	}

	log.Info("lead upsert complete",
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Succeeded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (u *Upserter) upsertOne(ctx context.Context, place google.Place) (*model.Lead, model.Outcome, error) {
	log := zap.L().With(zap.String("component", "upsert"), zap.String("name", place.Name))

	if place.Name == "" {
		log.Debug("place has no name, skipping", zap.String("place_id", place.PlaceID))
		return nil, model.OutcomeSkipped, nil
	}

	exists, err := u.store.LeadExistsByName(ctx, place.Name)
	if err != nil {
		return nil, model.OutcomeFailed, eris.Wrap(err, "upsert: check existing")
	}
	if exists {
		log.Info("lead already exists")
		return nil, model.OutcomeSkipped, nil
	}

	blocked, err := u.store.IsBlacklisted(ctx, model.BlacklistCompanyName, place.Name)
	if err != nil {
		return nil, model.OutcomeFailed, eris.Wrap(err, "upsert: check blacklist")
	}
	if blocked {
		log.Info("lead blacklisted")
		return nil, model.OutcomeSkipped, nil
	}

	lead := LeadFromPlace(place)
	if err := u.store.CreateLead(ctx, &lead); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Info("lead created concurrently, skipping")
			return nil, model.OutcomeSkipped, nil
		}
		return nil, model.OutcomeFailed, eris.Wrap(err, "upsert: create lead")
	}
	return &lead, model.OutcomeSucceeded, nil
}

// LeadFromPlace maps a search result to a new cold lead.
func LeadFromPlace(place google.Place) model.Lead {
	placeID := place.PlaceID
	notes := model.PlaceNotes(place.Rating, place.UserRatingsTotal, place.PlaceID)
	return model.Lead{
		CompanyName:  place.Name,
		Phone:        optional(place.FormattedPhoneNumber),
		WebsiteURL:   optional(place.Website),
		Address:      optional(place.FormattedAddress),
		Status:       model.LeadStatusCold,
		Source:       model.SourceGoogleMaps,
		PremiumScore: model.PremiumScore(place.Rating, place.UserRatingsTotal),
		PlaceID:      &placeID,
		Notes:        &notes,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
