package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	queueSize          prometheus.GaugeVec
	matchesFormed      prometheus.CounterVec
	matchesClosed      prometheus.CounterVec
	ratingUpdateFailed prometheus.CounterVec
	tierSyncDuration   prometheus.Histogram
	tierSyncPlayers    prometheus.Gauge
	tierSyncFailures   prometheus.Counter
	roleMutations      prometheus.CounterVec
	draftResults       prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	queueSize := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "brawlladder_queue_size",
			Help: "Number of participants waiting per queue",
		}, []string{"queue"})

	matchesFormed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawlladder_matches_formed_total",
			Help: "Matches formed per queue",
		}, []string{"queue"})

	matchesClosed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawlladder_matches_closed_total",
			Help: "Matches reaching a terminal state",
		}, []string{"queue", "state"})

	ratingUpdateFailed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawlladder_rating_update_failures_total",
			Help: "Player record writes that failed after a match closed",
		}, []string{"reason"})

	tierSyncDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "brawlladder_tier_sync_duration_ms",
			Help:    "Duration of tier synchronization cycles in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		})

	tierSyncPlayers := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "brawlladder_tier_sync_players",
			Help: "Players ranked in the last tier synchronization",
		})

	tierSyncFailures := factory.NewCounter(
		prometheus.CounterOpts{
			Name: "brawlladder_tier_sync_failures_total",
			Help: "Per-player reconciliation failures",
		})

	roleMutations := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawlladder_role_mutations_total",
			Help: "Tier role grants and revocations",
		}, []string{"op"})

	draftResults := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brawlladder_draft_results_total",
			Help: "Draft simulator verdicts",
		}, []string{"winner"})

	return prometheusMetrics{
		queueSize:          *queueSize,
		matchesFormed:      *matchesFormed,
		matchesClosed:      *matchesClosed,
		ratingUpdateFailed: *ratingUpdateFailed,
		tierSyncDuration:   tierSyncDuration,
		tierSyncPlayers:    tierSyncPlayers,
		tierSyncFailures:   tierSyncFailures,
		roleMutations:      *roleMutations,
		draftResults:       *draftResults,
	}
}

func (m prometheusMetrics) QueueSize(queue string, size int) {
	m.queueSize.With(prometheus.Labels{"queue": queue}).Set(float64(size))
}

func (m prometheusMetrics) MatchFormed(queue string) {
	m.matchesFormed.With(prometheus.Labels{"queue": queue}).Inc()
}

func (m prometheusMetrics) MatchClosed(queue string, state string) {
	m.matchesClosed.With(prometheus.Labels{"queue": queue, "state": state}).Inc()
}

func (m prometheusMetrics) RatingUpdateFailed(reason string) {
	m.ratingUpdateFailed.With(prometheus.Labels{"reason": reason}).Inc()
}

func (m prometheusMetrics) TierSyncCompleted(elapsed time.Duration, players int, failed int) {
	m.tierSyncDuration.Observe(float64(elapsed.Milliseconds()))
	m.tierSyncPlayers.Set(float64(players))
	m.tierSyncFailures.Add(float64(failed))
}

func (m prometheusMetrics) RoleMutation(op string) {
	m.roleMutations.With(prometheus.Labels{"op": op}).Inc()
}

func (m prometheusMetrics) DraftFinished(winner string) {
	m.draftResults.With(prometheus.Labels{"winner": winner}).Inc()
}
