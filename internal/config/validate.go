package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validation modes, one per kind of command.
const (
	ModeStore    = "store"
	ModeScrape   = "scrape"
	ModeDetails  = "details"
	ModeCampaign = "campaign"
	ModeSMTP     = "smtp"
)

// Validate checks that the settings needed by mode are present. Missing
// credentials are reported together in a single error.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case ModeStore:
		errs = append(errs, c.validateStore()...)
	case ModeScrape, ModeDetails:
		errs = append(errs, c.validateStore()...)
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
	case ModeCampaign:
		errs = append(errs, c.validateStore()...)
		if !c.Campaign.TestMode {
			errs = append(errs, c.validateSMTP()...)
		}
		if c.Campaign.SendDelaySecs < 0 {
			errs = append(errs, "campaign.send_delay_secs must be >= 0")
		}
	case ModeSMTP:
		errs = append(errs, c.validateSMTP()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateSMTP() []string {
	var errs []string
	if c.SMTP.Host == "" {
		errs = append(errs, "smtp.host is required")
	}
	if c.SMTP.Port <= 0 {
		errs = append(errs, "smtp.port must be > 0")
	}
	if c.SMTP.User == "" {
		errs = append(errs, "smtp.user is required")
	}
	if c.SMTP.Password == "" {
		errs = append(errs, "smtp.password is required")
	}
	return errs
}
