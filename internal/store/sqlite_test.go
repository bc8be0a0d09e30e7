package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func createLead(t *testing.T, st Store, lead model.Lead) *model.Lead {
	t.Helper()
	require.NoError(t, st.CreateLead(context.Background(), &lead))
	return &lead
}

// --- Leads ---

func TestSQLite_CreateAndGetLead(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createLead(t, st, model.Lead{
		CompanyName:  "Harley Smile Studio",
		WebsiteURL:   strPtr("https://harleysmile.co.uk"),
		Address:      strPtr("10 Harley Street, London"),
		Source:       model.SourceGoogleMaps,
		PremiumScore: 6,
		PlaceID:      strPtr("place-1"),
		Notes:        strPtr(model.PlaceNotes(4.9, 210, "place-1")),
	})

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harley Smile Studio", got.CompanyName)
	assert.Equal(t, model.LeadStatusCold, got.Status)
	assert.Nil(t, got.Email)
	assert.Nil(t, got.LastStepCompleted)
	require.NotNil(t, got.PlaceID)
	assert.Equal(t, "place-1", *got.PlaceID)
	assert.Equal(t, 6, got.PremiumScore)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_GetLead_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetLead(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_CreateLead_DuplicateName(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	createLead(t, st, model.Lead{CompanyName: "Smile Co"})

	exists, err := st.LeadExistsByName(ctx, "Smile Co")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.LeadExistsByName(ctx, "smile co")
	require.NoError(t, err)
	assert.False(t, exists)

	err = st.CreateLead(ctx, &model.Lead{CompanyName: "Smile Co"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestSQLite_UpdateLeadEmail_Unique(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := createLead(t, st, model.Lead{CompanyName: "A"})
	b := createLead(t, st, model.Lead{CompanyName: "B"})

	require.NoError(t, st.UpdateLeadEmail(ctx, a.ID, "info@a.co.uk"))
	err := st.UpdateLeadEmail(ctx, b.ID, "info@a.co.uk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	err = st.UpdateLeadEmail(ctx, "missing", "x@b.co.uk")
	assert.True(t, errors.Is(err, ErrNotFound))

	got, err := st.GetLead(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Email)
	assert.Equal(t, "info@a.co.uk", *got.Email)
}

func TestSQLite_UpdateLeadContact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createLead(t, st, model.Lead{CompanyName: "A", Phone: strPtr("+44 20 0000 0000")})

	require.NoError(t, st.UpdateLeadContact(ctx, lead.ID, ContactUpdate{WebsiteURL: strPtr("https://a.co.uk")}))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WebsiteURL)
	assert.Equal(t, "https://a.co.uk", *got.WebsiteURL)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+44 20 0000 0000", *got.Phone)
}

func TestSQLite_ListLeads_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	createLead(t, st, model.Lead{CompanyName: "Has Site", WebsiteURL: strPtr("https://site.co.uk"), Source: model.SourceGoogleMaps,
		Phone: strPtr("1"), PlaceID: strPtr("p1")})
	createLead(t, st, model.Lead{CompanyName: "Has Email", Email: strPtr("x@y.co.uk"), WebsiteURL: strPtr("https://y.co.uk")})
	createLead(t, st, model.Lead{CompanyName: "Legacy Ref", Source: model.SourceGoogleMaps,
		Notes: strPtr(model.PlaceNotes(4.8, 90, "legacy-1"))})
	createLead(t, st, model.Lead{CompanyName: "Bare", Source: model.SourceGoogleMaps})

	leads, err := st.ListLeads(ctx, LeadFilter{HasWebsite: boolPtr(true), HasEmail: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Has Site", leads[0].CompanyName)

	leads, err = st.ListLeads(ctx, LeadFilter{
		Source: model.SourceGoogleMaps, MissingWebsiteOrPhone: true, HasPlaceRef: true,
	})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Legacy Ref", leads[0].CompanyName)

	leads, err = st.ListLeads(ctx, LeadFilter{NotesContains: "legacy-1"})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	leads, err = st.ListLeads(ctx, LeadFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, leads, 2)

	leads, err = st.ListLeads(ctx, LeadFilter{Status: model.LeadStatusStopped})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

// --- Outreach ---

func TestSQLite_RecordOutreach_StateMachine(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createLead(t, st, model.Lead{CompanyName: "Smile Co", Email: strPtr("info@smile.co.uk")})

	eligible := func(step int) []model.Lead {
		leads, err := st.ListLeads(ctx, LeadFilter{EligibleForStep: intPtr(step)})
		require.NoError(t, err)
		return leads
	}

	assert.Len(t, eligible(0), 1)
	assert.Empty(t, eligible(1))
	assert.Empty(t, eligible(2))

	for step := 0; step <= model.FinalStep; step++ {
		current, err := st.GetLead(ctx, lead.ID)
		require.NoError(t, err)
		progress := current.ProgressAfter(step)
		require.NoError(t, st.RecordOutreach(ctx, &model.Interaction{
			LeadID: lead.ID, Step: step, Status: model.InteractionSent,
			MessageTemplate: model.StepTemplateName(step),
		}, &progress))

		if step < model.FinalStep {
			assert.Empty(t, eligible(step))
			assert.Len(t, eligible(step+1), 1)
		}
	}

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusStopped, got.Status)
	require.NotNil(t, got.LastStepCompleted)
	assert.Equal(t, 2, *got.LastStepCompleted)
	for step := 0; step <= model.FinalStep; step++ {
		assert.Empty(t, eligible(step))
	}

	its, err := st.ListInteractions(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, its, 3)

	n, err := st.CountInteractions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLite_RecordOutreach_FailureLeavesLead(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createLead(t, st, model.Lead{CompanyName: "Smile Co", Email: strPtr("info@smile.co.uk")})
	require.NoError(t, st.RecordOutreach(ctx, &model.Interaction{
		LeadID: lead.ID, Step: 0, Status: model.InteractionFailed, ErrorMessage: strPtr("smtp: 550"),
	}, nil))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastStepCompleted)
	assert.Equal(t, model.LeadStatusCold, got.Status)

	its, err := st.ListInteractions(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, its, 1)
	assert.Equal(t, model.InteractionFailed, its[0].Status)
	require.NotNil(t, its[0].ErrorMessage)
	assert.Equal(t, "smtp: 550", *its[0].ErrorMessage)
}

func TestSQLite_RecordOutreach_NeverDecreases(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := createLead(t, st, model.Lead{CompanyName: "Smile Co", Email: strPtr("info@smile.co.uk"), LastStepCompleted: intPtr(1)})

	err := st.RecordOutreach(ctx, &model.Interaction{LeadID: lead.ID, Step: 0, Status: model.InteractionSent},
		&model.LeadProgress{LastStepCompleted: 0, Status: model.LeadStatusCold})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	got, err := st.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.LastStepCompleted)
}

// --- Blacklist / lifecycle ---

func TestSQLite_Blacklist(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	entry := &model.Blacklist{Type: model.BlacklistCompanyName, Value: "Generic Dental", Reason: "Not premium"}
	require.NoError(t, st.AddBlacklist(ctx, entry))
	require.NoError(t, st.AddBlacklist(ctx, &model.Blacklist{Type: model.BlacklistCompanyName, Value: "Generic Dental"}))

	ok, err := st.IsBlacklisted(ctx, model.BlacklistCompanyName, "Generic Dental")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.IsBlacklisted(ctx, model.BlacklistDomain, "Generic Dental")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_SeedAndReset(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	data, err := LoadSeed()
	require.NoError(t, err)
	require.Len(t, data.Leads, 3)
	require.Len(t, data.Blacklist, 2)

	res, err := Seed(ctx, st, data)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Leads)

	res, err = Seed(ctx, st, data)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Leads)
	assert.Equal(t, 3, res.Skipped)

	counts, err := st.CountLeadsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[model.LeadStatusCold])

	ok, err := st.IsBlacklisted(ctx, model.BlacklistCompanyName, "Generic Dental")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Reset(ctx))
	counts, err = st.CountLeadsByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
