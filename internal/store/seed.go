package store

import (
	"context"
	_ "embed"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedData is the fixture loaded by `init`.
type SeedData struct {
	Leads     []SeedLead        `yaml:"leads"`
	Blacklist []model.Blacklist `yaml:"blacklist"`
}

// SeedLead is a fixture lead.
type SeedLead struct {
	CompanyName  string `yaml:"company_name"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	WebsiteURL   string `yaml:"website_url"`
	Address      string `yaml:"address"`
	ContactName  string `yaml:"contact_name"`
	PremiumScore int    `yaml:"premium_score"`
}

// SeedResult counts what Seed inserted.
type SeedResult struct {
	Leads     int
	Skipped   int
	Blacklist int
}

// LoadSeed parses the embedded fixture.
func LoadSeed() (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, eris.Wrap(err, "store: parse seed")
	}
	return &data, nil
}

// Seed inserts the fixture leads and blacklist rules. Leads whose name or
// email already exists are skipped, so Seed can run repeatedly.
func Seed(ctx context.Context, s Store, data *SeedData) (*SeedResult, error) {
	log := zap.L().With(zap.String("component", "seed"))
	result := &SeedResult{}

	for _, sl := range data.Leads {
		lead := &model.Lead{
			CompanyName:  sl.CompanyName,
			Email:        optional(sl.Email),
			Phone:        optional(sl.Phone),
			WebsiteURL:   optional(sl.WebsiteURL),
			Address:      optional(sl.Address),
			ContactName:  optional(sl.ContactName),
			Status:       model.LeadStatusCold,
			Source:       "seed",
			PremiumScore: sl.PremiumScore,
		}
		err := s.CreateLead(ctx, lead)
		if errors.Is(err, ErrConflict) {
			log.Debug("seed lead exists", zap.String("company", sl.CompanyName))
			result.Skipped++
			continue
		}
		if err != nil {
			return result, eris.Wrapf(err, "store: seed lead %q", sl.CompanyName)
		}
		result.Leads++
	}

	for i := range data.Blacklist {
		entry := data.Blacklist[i]
		if err := s.AddBlacklist(ctx, &entry); err != nil {
			return result, eris.Wrapf(err, "store: seed blacklist %s", entry.Value)
		}
		result.Blacklist++
	}

	log.Info("seeded store",
		zap.Int("leads", result.Leads),
		zap.Int("skipped", result.Skipped),
		zap.Int("blacklist", result.Blacklist),
	)
	return result, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
