// Package metrics registers the pipeline's Prometheus counters and serves them.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_search_queries_total",
			Help: "Total number of place search queries issued",
		},
		[]string{"result"},
	)

	placesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_places_fetched_total",
			Help: "Total number of raw place records returned by search",
		},
	)

	leadsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_leads_upserted_total",
			Help: "Total number of lead upsert outcomes",
		},
		[]string{"outcome"},
	)

	pagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_pages_fetched_total",
			Help: "Total number of website pages fetched for email extraction",
		},
		[]string{"result"},
	)

	emailsFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadgen_emails_found_total",
			Help: "Total number of lead emails discovered",
		},
	)

	outreachSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadgen_outreach_sends_total",
			Help: "Total number of campaign sends",
		},
		[]string{"step", "status"},
	)
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// RecordSearchQuery counts one search query with its result.
func RecordSearchQuery(ok bool) {
	searchQueries.WithLabelValues(result(ok)).Inc()
}

// RecordPlacesFetched adds n raw places.
func RecordPlacesFetched(n int) {
	placesFetched.Add(float64(n))
}

// RecordUpsert counts one lead upsert outcome.
func RecordUpsert(outcome string) {
	leadsUpserted.WithLabelValues(outcome).Inc()
}

// RecordPageFetch counts one website page fetch.
func RecordPageFetch(ok bool) {
	pagesFetched.WithLabelValues(result(ok)).Inc()
}

// RecordEmailFound counts one lead email discovery.
func RecordEmailFound() {
	emailsFound.Inc()
}

// RecordSend counts one campaign send.
func RecordSend(step int, status string) {
	outreachSends.WithLabelValues(strconv.Itoa(step), status).Inc()
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}
