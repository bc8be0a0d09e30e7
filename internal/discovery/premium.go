package discovery

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

var (
	premiumNameMarkers = []string{"cosmetic", "aesthetic", "studio", "specialist", "private"}
	stopNameMarkers    = []string{"nhs"}
	premiumAddresses   = []string{"Harley Street"}
)

// PremiumPolicy decides which places become leads.
type PremiumPolicy struct {
	MinRating  float64
	MinReviews int
	// Strict makes the name/address marker test gating. By default it is
	// only reported.
	Strict bool
}

// NewPremiumPolicy builds the policy from search settings.
func NewPremiumPolicy(cfg config.SearchConfig) PremiumPolicy {
	return PremiumPolicy{
		MinRating:  cfg.MinRating,
		MinReviews: cfg.MinReviews,
		Strict:     cfg.StrictPremium,
	}
}

// Accept applies the rating and review thresholds, and in strict mode the
// marker test too.
func (p PremiumPolicy) Accept(place google.Place) bool {
	if place.Rating < p.MinRating || place.UserRatingsTotal < p.MinReviews {
		return false
	}
	if p.Strict {
		return IsPremium(place)
	}
	return true
}

// IsPremium is the secondary marker test.
func IsPremium(place google.Place) bool {
	return PremiumByName(place.Name) || PremiumByAddress(place.FormattedAddress)
}

// PremiumByName reports whether name carries a premium marker. Names with a
// stop marker never qualify.
func PremiumByName(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range stopNameMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	for _, m := range premiumNameMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// PremiumByAddress reports whether address is on a premium street.
func PremiumByAddress(address string) bool {
	for _, m := range premiumAddresses {
		if strings.Contains(address, m) {
			return true
		}
	}
	return false
}

// Filter returns the accepted places in input order.
func (p PremiumPolicy) Filter(places []google.Place) []google.Place {
	log := zap.L().With(zap.String("component", "premium_filter"))

	out := make([]google.Place, 0, len(places))
	for _, place := range places {
		if !p.Accept(place) {
			continue
		}
		log.Debug("place accepted",
			zap.String("name", place.Name),
			zap.Float64("rating", place.Rating),
			zap.Int("reviews", place.UserRatingsTotal),
			zap.Bool("premium_marker", IsPremium(place)),
		)
		out = append(out, place)
	}

	log.Info("premium filter complete",
		zap.Int("input", len(places)),
		zap.Int("accepted", len(out)),
		zap.Bool("strict", p.Strict),
	)
	return out
}
