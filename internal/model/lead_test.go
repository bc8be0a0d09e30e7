package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestPremiumScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rating  float64
		reviews int
		want    int
	}{
		{"threshold", 4.7, 50, 2},
		{"volume capped", 5.0, 500, 7},
		{"huge volume", 5.0, 100000, 7},
		{"low rating clamps to zero", 1.0, 0, 0},
		{"mid", 4.8, 120, 3},
		{"zero reviews", 4.0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PremiumScore(tt.rating, tt.reviews))
		})
	}
}

func TestPremiumScore_Bounds(t *testing.T) {
	t.Parallel()

	for _, rating := range []float64{-5, 0, 3.2, 4.5, 5, 9, 100} {
		for _, reviews := range []int{0, 10, 99, 100, 1000, 1 << 20} {
			s := PremiumScore(rating, reviews)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 10)
		}
	}
}

func TestPlaceNotes_RoundTrip(t *testing.T) {
	t.Parallel()

	notes := PlaceNotes(4.8, 120, "ChIJabc-123_x")
	assert.Equal(t, "Google Maps: rating 4.8, 120 reviews, place_id: ChIJabc-123_x", notes)

	id, ok := PlaceIDFromNotes(notes)
	require.True(t, ok)
	assert.Equal(t, "ChIJabc-123_x", id)

	_, ok = PlaceIDFromNotes("called twice, no answer")
	assert.False(t, ok)
}

func TestLead_PlaceRef(t *testing.T) {
	t.Parallel()

	explicit := Lead{PlaceID: strPtr("col-id"), Notes: strPtr("place_id: notes-id")}
	id, ok := explicit.PlaceRef()
	require.True(t, ok)
	assert.Equal(t, "col-id", id)

	legacy := Lead{Notes: strPtr("Google Maps: rating 4.9, 80 reviews, place_id: notes-id")}
	id, ok = legacy.PlaceRef()
	require.True(t, ok)
	assert.Equal(t, "notes-id", id)

	none := Lead{}
	_, ok = none.PlaceRef()
	assert.False(t, ok)
}

func TestLead_CheckStep(t *testing.T) {
	t.Parallel()

	fresh := Lead{Email: strPtr("info@clinic.co.uk"), Status: LeadStatusCold}
	assert.NoError(t, fresh.CheckStep(0))
	assert.Error(t, fresh.CheckStep(1))
	assert.Error(t, fresh.CheckStep(2))

	afterZero := fresh
	afterZero.LastStepCompleted = intPtr(0)
	assert.Error(t, afterZero.CheckStep(0))
	assert.NoError(t, afterZero.CheckStep(1))
	assert.Error(t, afterZero.CheckStep(2))

	afterOne := fresh
	afterOne.LastStepCompleted = intPtr(1)
	assert.NoError(t, afterOne.CheckStep(2))

	noEmail := Lead{Status: LeadStatusCold}
	assert.Error(t, noEmail.CheckStep(0))

	stopped := Lead{Email: strPtr("info@clinic.co.uk"), Status: LeadStatusStopped, LastStepCompleted: intPtr(2)}
	for step := FirstStep; step <= FinalStep; step++ {
		assert.Error(t, stopped.CheckStep(step))
	}

	var stepErr *StepError
	require.True(t, errors.As(fresh.CheckStep(5), &stepErr))
	assert.Equal(t, 5, stepErr.Step)
}

func TestLead_ProgressAfter(t *testing.T) {
	t.Parallel()

	l := Lead{Status: LeadStatusCold}
	assert.Equal(t, LeadProgress{LastStepCompleted: 0, Status: LeadStatusCold}, l.ProgressAfter(0))
	assert.Equal(t, LeadProgress{LastStepCompleted: 1, Status: LeadStatusCold}, l.ProgressAfter(1))
	assert.Equal(t, LeadProgress{LastStepCompleted: 2, Status: LeadStatusStopped}, l.ProgressAfter(2))
}

func TestLeadStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status LeadStatus
		want   string
	}{
		{LeadStatusCold, "cold"},
		{LeadStatusWarm, "warm"},
		{LeadStatusReplied, "replied"},
		{LeadStatusStopped, "stopped"},
		{LeadStatusBlacklisted, "blacklisted"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
			assert.True(t, tt.status.Valid())
		})
	}
	assert.False(t, LeadStatus("COLD").Valid())
}

func TestBatchStats(t *testing.T) {
	t.Parallel()

	var b BatchStats
	b.Record(OutcomeSucceeded)
	b.Record(OutcomeSkipped)
	b.Fail("lead-1", errors.New("boom"))

	assert.Equal(t, 3, b.Processed)
	assert.Equal(t, 1, b.Succeeded)
	assert.Equal(t, 1, b.Skipped)
	assert.Equal(t, 1, b.Failed)
	require.Len(t, b.Errors, 1)
	assert.Equal(t, ItemError{Item: "lead-1", Error: "boom"}, b.Errors[0])
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "email_step_2", StepTemplateName(2))
}
