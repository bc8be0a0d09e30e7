package model

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// LeadStatus is the lifecycle state of a lead.
type LeadStatus string

const (
	LeadStatusCold        LeadStatus = "cold"
	LeadStatusWarm        LeadStatus = "warm"
	LeadStatusReplied     LeadStatus = "replied"
	LeadStatusStopped     LeadStatus = "stopped"
	LeadStatusBlacklisted LeadStatus = "blacklisted"
)

// LeadStatuses lists every status in display order.
var LeadStatuses = []LeadStatus{
	LeadStatusCold,
	LeadStatusWarm,
	LeadStatusReplied,
	LeadStatusStopped,
	LeadStatusBlacklisted,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// SourceGoogleMaps tags leads created from Places search results.
const SourceGoogleMaps = "googlemaps"

// Campaign steps run 0..FinalStep in order.
const (
	FirstStep = 0
	FinalStep = 2
)

// Lead is a prospective clinic contact record.
type Lead struct {
	ID                string     `json:"id"`
	CompanyName       string     `json:"company_name"`
	Email             *string    `json:"email,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	WebsiteURL        *string    `json:"website_url,omitempty"`
	Address           *string    `json:"address,omitempty"`
	ContactName       *string    `json:"contact_name,omitempty"`
	InstagramURL      *string    `json:"instagram_url,omitempty"`
	Status            LeadStatus `json:"status"`
	LastStepCompleted *int       `json:"last_step_completed,omitempty"`
	Source            string     `json:"source"`
	PremiumScore      int        `json:"premium_score"`
	PlaceID           *string    `json:"place_id,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

var placeIDMarker = regexp.MustCompile(`place_id:\s*([A-Za-z0-9_-]+)`)

// PlaceNotes renders the notes side-channel written for search-created leads.
func PlaceNotes(rating float64, reviews int, placeID string) string {
	return fmt.Sprintf("Google Maps: rating %.1f, %d reviews, place_id: %s", rating, reviews, placeID)
}

// PlaceIDFromNotes recovers a place identifier from the "place_id: <id>" marker.
func PlaceIDFromNotes(notes string) (string, bool) {
	m := placeIDMarker.FindStringSubmatch(notes)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PlaceRef returns the external place identifier of the lead. Rows written
// before the place_id column existed only carry it inside notes.
func (l *Lead) PlaceRef() (string, bool) {
	if l.PlaceID != nil && *l.PlaceID != "" {
		return *l.PlaceID, true
	}
	if l.Notes != nil {
		return PlaceIDFromNotes(*l.Notes)
	}
	return "", false
}

// HasEmail reports whether the lead has a non-empty email.
func (l *Lead) HasEmail() bool {
	return l.Email != nil && strings.TrimSpace(*l.Email) != ""
}

// HasWebsite reports whether the lead has a non-empty website.
func (l *Lead) HasWebsite() bool {
	return l.WebsiteURL != nil && strings.TrimSpace(*l.WebsiteURL) != ""
}

// HasPhone reports whether the lead has a non-empty phone number.
func (l *Lead) HasPhone() bool {
	return l.Phone != nil && strings.TrimSpace(*l.Phone) != ""
}

// LeadProgress is the campaign state written after a successful send.
type LeadProgress struct {
	LastStepCompleted int
	Status            LeadStatus
}

// StepError explains why a lead cannot receive a campaign step.
type StepError struct {
	Step   int
	Reason string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Step, e.Reason)
}

// ValidStep reports whether step is a campaign step.
func ValidStep(step int) bool {
	return step >= FirstStep && step <= FinalStep
}

// CheckStep returns nil when the lead may be sent the given step: it has an
// email, is still cold, and has completed exactly the step before it.
func (l *Lead) CheckStep(step int) error {
	if !ValidStep(step) {
		return &StepError{Step: step, Reason: "out of range"}
	}
	if !l.HasEmail() {
		return &StepError{Step: step, Reason: "lead has no email"}
	}
	if l.Status != LeadStatusCold {
		return &StepError{Step: step, Reason: "lead status is " + string(l.Status)}
	}
	if step == FirstStep {
		if l.LastStepCompleted != nil {
			return &StepError{Step: step, Reason: fmt.Sprintf("already completed step %d", *l.LastStepCompleted)}
		}
		return nil
	}
	if l.LastStepCompleted == nil {
		return &StepError{Step: step, Reason: "previous step not completed"}
	}
	if *l.LastStepCompleted < step-1 {
		return &StepError{Step: step, Reason: "previous step not completed"}
	}
	if *l.LastStepCompleted >= step {
		return &StepError{Step: step, Reason: fmt.Sprintf("already completed step %d", *l.LastStepCompleted)}
	}
	return nil
}

// ProgressAfter returns the lead state after step has been sent.
func (l *Lead) ProgressAfter(step int) LeadProgress {
	p := LeadProgress{LastStepCompleted: step, Status: l.Status}
	if step >= FinalStep {
		p.Status = LeadStatusStopped
	}
	return p
}

// PremiumScore converts a rating and review count into a 0-10 score.
func PremiumScore(rating float64, reviews int) int {
	volume := math.Min(float64(reviews)/100, 5)
	score := int(math.Round((rating-4.0)*2 + volume))
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
