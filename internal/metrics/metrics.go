package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LinesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvp_ingest_lines_processed_total",
		Help: "Total number of log lines parsed into events",
	}, []string{"format"})

	LinesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvp_ingest_lines_skipped_total",
		Help: "Total number of log lines that could not be parsed",
	}, []string{"format"})

	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvp_ingest_matches_created_total",
		Help: "Total number of matches stored",
	}, []string{"format"})

	DuplicateMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvp_ingest_duplicate_matches_total",
		Help: "Total number of matches skipped because their hash was already stored",
	}, []string{"format"})

	DiscardedMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pvp_ingest_discarded_matches_total",
		Help: "Total number of recordings dropped without any resolved participant",
	}, []string{"format"})

	PlayersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pvp_ingest_players_created_total",
		Help: "Total number of players created during ingestion",
	})

	EnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pvp_ingest_enrichment_failures_total",
		Help: "Total number of failed player profile lookups",
	})

	IngestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pvp_ingest_duration_seconds",
		Help:    "Duration of one upload ingestion",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"format", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
