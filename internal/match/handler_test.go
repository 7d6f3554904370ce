package match

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jacl-coder/BrawlLadder-Server/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTrigger struct {
	report tier.Report
	err    error
	calls  int
}

func (s *stubTrigger) RunNow(context.Context) (tier.Report, error) {
	s.calls++
	return s.report, s.err
}

func newTestMux(t *testing.T, trigger TierTrigger) (*http.ServeMux, serviceFixture) {
	t.Helper()
	f := newServiceFixture(t, testMatchConfig())
	mux := http.NewServeMux()
	NewHandler(f.svc, trigger, quietLog()).RegisterHandlers(mux)
	return mux, f
}

func TestHandlerRoutes(t *testing.T) {
	mux, f := newTestMux(t, nil)
	m := f.formMatch(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"health wrong method", http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{"status", http.MethodGet, "/match/status", http.StatusOK},
		{"active", http.MethodGet, "/match/active", http.StatusOK},
		{"match by id", http.MethodGet, "/match/" + m.ID, http.StatusOK},
		{"unknown match", http.MethodGet, "/match/nope", http.StatusNotFound},
		{"missing id", http.MethodGet, "/match/", http.StatusBadRequest},
		{"tier sync disabled", http.MethodPost, "/tiers/sync", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandlerStatusBody(t *testing.T) {
	mux, f := newTestMux(t, nil)
	f.formMatch(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/match/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body matchStatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.ActiveMatches)
	assert.Equal(t, 0, body.Queues["general"])
}

func TestHandlerTierSync(t *testing.T) {
	trigger := &stubTrigger{report: tier.Report{Players: 6, Granted: 2}}
	mux, _ := newTestMux(t, trigger)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tiers/sync", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, trigger.calls)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiers/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	trigger.err = errors.New("boom")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tiers/sync", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
