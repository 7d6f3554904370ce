package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.QueueSize("general", 4)
	m.MatchFormed("general")
	m.MatchFormed("general")
	m.MatchClosed("general", "RESOLVED")
	m.RoleMutation("grant")
	m.TierSyncCompleted(120*time.Millisecond, 10, 1)
	m.DraftFinished("ai")
	m.RatingUpdateFailed("store")

	pm := m.(prometheusMetrics)
	assert.Equal(t, 4.0, testutil.ToFloat64(pm.queueSize.With(prometheus.Labels{"queue": "general"})))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.matchesFormed.With(prometheus.Labels{"queue": "general"})))
	assert.Equal(t, 10.0, testutil.ToFloat64(pm.tierSyncPlayers))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.tierSyncFailures))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNoop(t *testing.T) {
	m := Noop()
	assert.NotPanics(t, func() {
		m.QueueSize("q", 1)
		m.MatchClosed("q", "DODGED")
		m.TierSyncCompleted(time.Second, 0, 0)
	})
}
