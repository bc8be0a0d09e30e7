package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = eris.New("store: not found")
	// ErrConflict is returned when a write violates a uniqueness rule or a
	// campaign guard. It is recoverable: callers count it as a skip.
	ErrConflict = eris.New("store: conflict")
)

// LeadFilter specifies criteria for listing leads. Zero values are ignored.
type LeadFilter struct {
	Status                model.LeadStatus
	Source                string
	HasEmail              *bool
	HasWebsite            *bool
	MissingWebsiteOrPhone bool
	HasPlaceRef           bool
	NotesContains         string
	// EligibleForStep selects cold leads with an email whose last completed
	// step is the one before it (none for the first step).
	EligibleForStep *int
	Limit           int
}

// ContactUpdate sets website and/or phone on a lead. Nil fields are left alone.
type ContactUpdate struct {
	WebsiteURL *string
	Phone      *string
}

// Store defines the persistence interface for leads, interactions and the blacklist.
type Store interface {
	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	LeadExistsByName(ctx context.Context, name string) (bool, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLeadEmail(ctx context.Context, id, email string) error
	UpdateLeadContact(ctx context.Context, id string, update ContactUpdate) error
	CountLeadsByStatus(ctx context.Context) (map[model.LeadStatus]int, error)

	// Interactions
	RecordOutreach(ctx context.Context, it *model.Interaction, progress *model.LeadProgress) error
	ListInteractions(ctx context.Context, leadID string) ([]model.Interaction, error)
	CountInteractions(ctx context.Context) (int, error)

	// Blacklist
	AddBlacklist(ctx context.Context, entry *model.Blacklist) error
	IsBlacklisted(ctx context.Context, typ model.BlacklistType, value string) (bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
}

const leadColumns = `id, company_name, email, phone, website_url, address, contact_name, instagram_url, status, last_step_completed, source, premium_score, place_id, notes, created_at, updated_at`

const interactionColumns = `id, lead_id, channel, step, message_template, message_content, sent_at, status, external_id, error_message`

// placeholder renders the n-th (1-based) bind parameter for a driver.
type placeholder func(n int) string

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }

// buildLeadQuery renders a SELECT over leads for filter.
func buildLeadQuery(filter LeadFilter, ph placeholder) (string, []any) {
	var conditions []string
	var args []any

	bind := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	status := filter.Status
	hasEmail := filter.HasEmail
	if filter.EligibleForStep != nil {
		step := *filter.EligibleForStep
		status = model.LeadStatusCold
		yes := true
		hasEmail = &yes
		if step <= model.FirstStep {
			conditions = append(conditions, "last_step_completed IS NULL")
		} else {
			conditions = append(conditions, "last_step_completed = "+bind(step-1))
		}
	}

	if status != "" {
		conditions = append(conditions, "status = "+bind(string(status)))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = "+bind(filter.Source))
	}
	if hasEmail != nil {
		conditions = append(conditions, presence("email", *hasEmail))
	}
	if filter.HasWebsite != nil {
		conditions = append(conditions, presence("website_url", *filter.HasWebsite))
	}
	if filter.MissingWebsiteOrPhone {
		conditions = append(conditions, "("+presence("website_url", false)+" OR "+presence("phone", false)+")")
	}
	if filter.HasPlaceRef {
		conditions = append(conditions, "("+presence("place_id", true)+" OR notes LIKE '%place_id:%')")
	}
	if filter.NotesContains != "" {
		conditions = append(conditions, "notes LIKE "+bind("%"+filter.NotesContains+"%"))
	}

	query := "SELECT " + leadColumns + " FROM leads"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT " + bind(filter.Limit)
	}
	return query, args
}

func presence(col string, present bool) string {
	if present {
		return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", col, col)
	}
	return fmt.Sprintf("(%s IS NULL OR %s = '')", col, col)
}

type scannable interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var status string
	err := row.Scan(
		&l.ID, &l.CompanyName, &l.Email, &l.Phone, &l.WebsiteURL, &l.Address,
		&l.ContactName, &l.InstagramURL, &status, &l.LastStepCompleted, &l.Source,
		&l.PremiumScore, &l.PlaceID, &l.Notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan lead")
	}
	l.Status = model.LeadStatus(status)
	return &l, nil
}

func scanInteraction(row scannable) (*model.Interaction, error) {
	var it model.Interaction
	var channel, status string
	err := row.Scan(
		&it.ID, &it.LeadID, &channel, &it.Step, &it.MessageTemplate, &it.MessageContent,
		&it.SentAt, &status, &it.ExternalID, &it.ErrorMessage,
	)
	if err != nil {
		return nil, eris.Wrap(err, "scan interaction")
	}
	it.Channel = model.Channel(channel)
	it.Status = model.InteractionStatus(status)
	return &it, nil
}

// validateLead checks the invariants enforced before any insert.
func validateLead(l *model.Lead) error {
	if strings.TrimSpace(l.CompanyName) == "" {
		return eris.New("store: lead company name is required")
	}
	if l.PremiumScore < 0 || l.PremiumScore > 10 {
		return eris.Errorf("store: premium score %d out of range", l.PremiumScore)
	}
	if l.LastStepCompleted != nil && !model.ValidStep(*l.LastStepCompleted) {
		return eris.Errorf("store: last step %d out of range", *l.LastStepCompleted)
	}
	if l.Status == "" {
		l.Status = model.LeadStatusCold
	}
	if !l.Status.Valid() {
		return eris.Errorf("store: unknown lead status %q", l.Status)
	}
	return nil
}

func validateInteraction(it *model.Interaction) error {
	if it.LeadID == "" {
		return eris.New("store: interaction lead id is required")
	}
	if !model.ValidStep(it.Step) {
		return eris.Errorf("store: interaction step %d out of range", it.Step)
	}
	if it.Channel == "" {
		it.Channel = model.ChannelEmail
	}
	return nil
}
