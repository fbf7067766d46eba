package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/refresh"
)

func TestObserveRun(t *testing.T) {
	r := New()
	start := time.Date(2026, time.October, 18, 18, 0, 0, 0, time.UTC)

	r.ObserveRun(refresh.RunReport{
		Kind:       refresh.KindPrices,
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Tally:      refresh.Tally{Updated: 5, Failed: 2, ConfigErrors: 1},
	})
	r.ObserveRun(refresh.RunReport{
		Kind:       refresh.KindNAVs,
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Error:      "nav table unavailable",
	})
	// joiners share the leader's report and must not double count
	r.ObserveRun(refresh.RunReport{Kind: refresh.KindPrices, Tally: refresh.Tally{Updated: 5}, Shared: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("prices", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("navs", "aborted")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.records.WithLabelValues("prices", "updated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.records.WithLabelValues("prices", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.records.WithLabelValues("prices", "config_error")))
	assert.Equal(t, float64(start.Add(3*time.Second).Unix()), testutil.ToFloat64(r.lastRun.WithLabelValues("prices")))
}

func TestHandlerExposesProviderCalls(t *testing.T) {
	r := New()
	r.ObserveProviderCall("yahoo", "rate_limited")
	r.ObserveProviderCall("yahoo", "rate_limited")
	r.ObserveProviderCall("twelvedata", "success")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `fintrack_provider_calls_total{outcome="rate_limited",provider="yahoo"} 2`), text)
	assert.True(t, strings.Contains(text, `fintrack_provider_calls_total{outcome="success",provider="twelvedata"} 1`))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
