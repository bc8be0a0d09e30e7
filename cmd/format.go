package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/leadgen-cli/internal/discovery"
	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// formatStatus writes lead counts per status followed by totals.
func formatStatus(out io.Writer, counts map[model.LeadStatus]int, interactions int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tLEADS")
	_, _ = fmt.Fprintln(w, "------\t-----")

	total := 0
	for _, s := range model.LeadStatuses {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", s, counts[s])
		total += counts[s]
	}
	_, _ = fmt.Fprintf(w, "Total leads:\t%d\n", total)
	_, _ = fmt.Fprintf(w, "Interactions:\t%d\n", interactions)
	_ = w.Flush()
}

// formatBatch writes a one-line summary of stats plus any item errors.
func formatBatch(out io.Writer, title string, stats *model.BatchStats) {
	_, _ = fmt.Fprintf(out, "%s: processed=%d succeeded=%d skipped=%d failed=%d\n",
		title, stats.Processed, stats.Succeeded, stats.Skipped, stats.Failed)
	formatItemErrors(out, stats.Errors)
}

func formatItemErrors(out io.Writer, errs []model.ItemError) {
	if len(errs) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ITEM\tERROR")
	for _, e := range errs {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", e.Item, e.Error)
	}
	_ = w.Flush()
}

// formatScrape writes the funnel of a search sweep.
func formatScrape(out io.Writer, res *discovery.PipelineResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Queries:\t%d\n", res.Sweep.Queries)
	_, _ = fmt.Fprintf(w, "  Failed:\t%d\n", res.Sweep.FailedQueries)
	_, _ = fmt.Fprintf(w, "Pages:\t%d\n", res.Sweep.Pages)
	_, _ = fmt.Fprintf(w, "Places:\t%d\n", len(res.Sweep.Places))
	_, _ = fmt.Fprintf(w, "Unique:\t%d\n", res.Unique)
	_, _ = fmt.Fprintf(w, "Premium:\t%d\n", res.Accepted)
	if res.Upsert != nil {
		_, _ = fmt.Fprintf(w, "Created:\t%d\n", res.Upsert.Succeeded)
		_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", res.Upsert.Skipped)
		_, _ = fmt.Fprintf(w, "Failed:\t%d\n", res.Upsert.Failed)
	}
	_ = w.Flush()

	if res.Upsert != nil {
		formatItemErrors(out, res.Upsert.Errors)
	}
}

func formatEnrichStats(out io.Writer, stats *enrich.EnrichStats) {
	_, _ = fmt.Fprintf(out, "email enrichment: processed=%d found=%d updated=%d skipped=%d errors=%d\n",
		stats.Processed, stats.EmailsFound, stats.EmailsUpdated, stats.Skipped, stats.Errors)
	formatItemErrors(out, stats.Failures)
}

// formatLeadResult writes the outcome of enriching one lead.
func formatLeadResult(out io.Writer, res *enrich.LeadResult, dryRun bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Lead:\t%s\n", res.Lead.CompanyName)
	if res.Lead.WebsiteURL != nil {
		_, _ = fmt.Fprintf(w, "Website:\t%s\n", *res.Lead.WebsiteURL)
	}
	_, _ = fmt.Fprintf(w, "Found:\t%s\n", orNone(strings.Join(res.FoundEmails, ", ")))
	_, _ = fmt.Fprintf(w, "Best:\t%s\n", orNone(res.BestEmail))
	switch {
	case dryRun:
		_, _ = fmt.Fprintln(w, "Updated:\tno (dry run)")
	case res.Updated:
		_, _ = fmt.Fprintln(w, "Updated:\tyes")
	default:
		_, _ = fmt.Fprintln(w, "Updated:\tno")
	}
	if len(res.FoundEmails) == 0 && len(res.Suggestions) > 0 {
		_, _ = fmt.Fprintf(w, "Try:\t%s\n", strings.Join(res.Suggestions, ", "))
	}
	_ = w.Flush()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// mask hides all but the first two characters of a secret.
func mask(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 2:
		return strings.Repeat("*", len(s))
	default:
		return s[:2] + strings.Repeat("*", len(s)-2)
	}
}
