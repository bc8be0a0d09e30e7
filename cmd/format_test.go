//go:build !integration

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

func TestFormatStatus(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, map[model.LeadStatus]int{
		model.LeadStatusCold:    4,
		model.LeadStatusStopped: 1,
	}, 7)

	out := buf.String()
	assert.Regexp(t, `cold\s+4`, out)
	assert.Regexp(t, `warm\s+0`, out)
	assert.Regexp(t, `stopped\s+1`, out)
	assert.Regexp(t, `Total leads:\s+5`, out)
	assert.Regexp(t, `Interactions:\s+7`, out)
}

func TestFormatBatch_WithErrors(t *testing.T) {
	stats := &model.BatchStats{}
	stats.Record(model.OutcomeSucceeded)
	stats.Record(model.OutcomeSkipped)
	stats.Fail("Smile Co", errors.New("smtp: 550"))

	var buf bytes.Buffer
	formatBatch(&buf, "campaign step 0", stats)

	out := buf.String()
	assert.Contains(t, out, "campaign step 0: processed=3 succeeded=1 skipped=1 failed=1")
	assert.Regexp(t, `Smile Co\s+smtp: 550`, out)
}

func TestFormatBatch_NoErrorsTable(t *testing.T) {
	var buf bytes.Buffer
	formatBatch(&buf, "details enrichment", &model.BatchStats{})
	assert.NotContains(t, buf.String(), "ITEM")
}

func TestFormatScrape(t *testing.T) {
	res := &discovery.PipelineResult{
		Sweep:    &discovery.SweepResult{Places: []google.Place{{PlaceID: "a"}}, Queries: 4, FailedQueries: 1, Pages: 6},
		Unique:   9,
		Accepted: 3,
		Upsert:   &discovery.UpsertResult{BatchStats: model.BatchStats{Processed: 3, Succeeded: 2, Skipped: 1}},
	}

	var buf bytes.Buffer
	formatScrape(&buf, res)

	out := buf.String()
	assert.Regexp(t, `Queries:\s+4`, out)
	assert.Regexp(t, `Failed:\s+1`, out)
	assert.Regexp(t, `Unique:\s+9`, out)
	assert.Regexp(t, `Premium:\s+3`, out)
	assert.Regexp(t, `Created:\s+2`, out)
}

func TestFormatEnrichStats(t *testing.T) {
	var buf bytes.Buffer
	formatEnrichStats(&buf, &enrich.EnrichStats{Processed: 5, EmailsFound: 3, EmailsUpdated: 2, Skipped: 1, Errors: 1,
		Failures: []model.ItemError{{Item: "Dead Site", Error: "timeout"}}})

	out := buf.String()
	assert.Contains(t, out, "processed=5 found=3 updated=2 skipped=1 errors=1")
	assert.Regexp(t, `Dead Site\s+timeout`, out)
}

func TestFormatLeadResult(t *testing.T) {
	site := "https://smile.co.uk"
	lead := &model.Lead{CompanyName: "Smile Co", WebsiteURL: &site}

	var buf bytes.Buffer
	formatLeadResult(&buf, &enrich.LeadResult{
		Lead:        lead,
		FoundEmails: []string{"info@smile.co.uk", "jane@smile.co.uk"},
		BestEmail:   "jane@smile.co.uk",
		Updated:     true,
	}, false)
	out := buf.String()
	assert.Regexp(t, `Best:\s+jane@smile.co.uk`, out)
	assert.Regexp(t, `Updated:\s+yes`, out)
	assert.NotContains(t, out, "Try:")

	buf.Reset()
	formatLeadResult(&buf, &enrich.LeadResult{
		Lead:        lead,
		Suggestions: []string{"info@smile.co.uk"},
	}, true)
	out = buf.String()
	assert.Regexp(t, `Found:\s+\(none\)`, out)
	assert.Regexp(t, `Updated:\s+no \(dry run\)`, out)
	assert.Regexp(t, `Try:\s+info@smile.co.uk`, out)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(not set)", mask(""))
	assert.Equal(t, "**", mask("ab"))
	assert.Equal(t, "se****", mask("secret"))
}
