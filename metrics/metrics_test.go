// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopMetrics(t *testing.T) {
	m := defaultNoopMetrics()
	m.GetOrCreateCountMeter("c").Add(1)
	m.GetOrCreateCountVecMeter("cv", []string{"kind"}).AddWithLabel(1, map[string]string{"kind": "x"})
	m.GetOrCreateGaugeMeter("g").Set(3)
	m.GetOrCreateHistogramMeter("h", nil).Observe(2)

	rec := httptest.NewRecorder()
	m.GetOrCreateHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	applied := LazyLoadCounter("test_blocks_applied_count")
	applied().Add(3)
	Counter("test_blocks_applied_count").Add(1)
	CounterVec("test_transitions_count", []string{"kind"}).AddWithLabel(2, map[string]string{"kind": "powerup"})
	LazyLoadGauge("test_scheduled_stakes")().Set(7)
	LazyLoadHistogram("test_apply_ms", BucketApplyMillis)().Observe(4)

	families, err := prometheus.Gatherers{prometheus.DefaultGatherer}.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	require.Contains(t, byName, "ledger_test_blocks_applied_count")
	assert.Equal(t, float64(4), byName["ledger_test_blocks_applied_count"].Metric[0].GetCounter().GetValue())
	transitions := byName["ledger_test_transitions_count"].Metric[0]
	assert.Equal(t, float64(2), transitions.GetCounter().GetValue())
	assert.Equal(t, "powerup", transitions.GetLabel()[0].GetValue())
	assert.Equal(t, float64(7), byName["ledger_test_scheduled_stakes"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, uint64(1), byName["ledger_test_apply_ms"].Metric[0].GetHistogram().GetSampleCount())

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ledger_test_blocks_applied_count 4")
}
