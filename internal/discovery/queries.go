// Package discovery sweeps Google Places for clinics and turns the results
// into deduplicated, filtered leads.
package discovery

import "github.com/sells-group/leadgen-cli/internal/config"

// BuildQueries returns the search sweep: every term for every district, then
// the generic terms for every district.
func BuildQueries(cfg config.SearchConfig) []string {
	queries := make([]string, 0, len(cfg.Districts)*(len(cfg.Terms)+len(cfg.GenericTerms)))
	for _, district := range cfg.Districts {
		for _, term := range cfg.Terms {
			queries = append(queries, term+" in "+district)
		}
	}
	for _, district := range cfg.Districts {
		for _, term := range cfg.GenericTerms {
			queries = append(queries, term+" in "+district)
		}
	}
	return queries
}
