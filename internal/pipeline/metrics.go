package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// yearsProcessed tracks years that completed fetch and reduction.
	yearsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_years_processed_total",
		Help: "The total number of years fetched and reduced successfully.",
	})
	// yearsFailed tracks years abandoned after a fatal per-year error.
	yearsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_years_failed_total",
		Help: "The total number of years skipped due to a fatal error.",
	})
	// titlesReduced tracks canonical works produced by reduction.
	titlesReduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_titles_reduced_total",
		Help: "The total number of canonical works produced.",
	})
	// enrichmentHits tracks works matched on Goodreads.
	enrichmentHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_enrichment_hits_total",
		Help: "The total number of works that matched a Goodreads record.",
	})
	// yearWritesFailed tracks years whose output file could not be written.
	yearWritesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_year_writes_failed_total",
		Help: "The total number of years whose JSON output failed to write.",
	})
	// enrichmentRateLimited tracks enrichment queries dropped after the
	// service kept pushing back.
	enrichmentRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "books_enrichment_rate_limited_total",
		Help: "The total number of enrichment lookups dropped due to rate limiting.",
	})
)
