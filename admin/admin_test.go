// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposledger/ledger/events"
	"github.com/dposledger/ledger/manager"
	"github.com/dposledger/ledger/metrics"
)

type fixedTip manager.Tip

func (f fixedTip) Tip() manager.Tip { return manager.Tip(f) }

func serve(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLogLevel(t *testing.T) {
	var logLevel slog.LevelVar
	h := HTTPHandler(&logLevel, Options{})

	tests := []struct {
		name   string
		method string
		body   string
		code   int
		level  string
	}{
		{"get", http.MethodGet, "", http.StatusOK, "INFO"},
		{"set debug", http.MethodPost, `{"level":"debug"}`, http.StatusOK, "DBUG"},
		{"set by number", http.MethodPost, `{"level":"2"}`, http.StatusOK, "WARN"},
		{"invalid level", http.MethodPost, `{"level":"invalid_body"}`, http.StatusBadRequest, ""},
		{"invalid body", http.MethodPost, `{`, http.StatusBadRequest, ""},
		{"method", http.MethodDelete, "", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, h, tt.method, "/admin/loglevel", []byte(tt.body))
			assert.Equal(t, tt.code, rr.Code)
			if tt.code != http.StatusOK {
				var resp errorResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.code, resp.ErrorCode)
				return
			}
			var resp logLevelResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.level, resp.CurrentLevel)
		})
	}
}

func TestHealth(t *testing.T) {
	var logLevel slog.LevelVar

	fresh := HTTPHandler(&logLevel, Options{Tips: fixedTip{Height: 7, AppliedAt: time.Now()}, MaxIdle: time.Minute})
	rr := serve(t, fresh, http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp healthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Healthy)
	assert.Equal(t, uint32(7), resp.Tip.Height)

	stale := HTTPHandler(&logLevel, Options{Tips: fixedTip{Height: 7, AppliedAt: time.Now().Add(-time.Hour)}, MaxIdle: time.Minute})
	rr = serve(t, stale, http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	// nothing applied yet
	rr = serve(t, HTTPHandler(&logLevel, Options{Tips: fixedTip{}, MaxIdle: time.Minute}), http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, HTTPHandler(&logLevel, Options{}), http.MethodGet, "/admin/health", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventStream(t *testing.T) {
	var logLevel slog.LevelVar
	bus := events.NewBus()
	defer bus.Close()

	srv := httptest.NewServer(HTTPHandler(&logLevel, Options{Bus: bus}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin/events?name=" + string(events.BlockApplied)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// wait for the handler to subscribe
	require.Eventually(t, func() bool {
		return bus.Publish(events.New(events.BlockReverted, 1)) > 0
	}, time.Second, 10*time.Millisecond)
	bus.Publish(events.New(events.BlockApplied, 2))

	var ev events.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.BlockApplied, ev.Name)
	assert.Equal(t, uint32(2), ev.Height)
	assert.NotEmpty(t, ev.ID)
}

func TestStartServer(t *testing.T) {
	metrics.InitializePrometheusMetrics()
	metrics.Counter("admin_test_count").Add(3)

	var logLevel slog.LevelVar
	url, stop, err := StartServer("127.0.0.1:0", &logLevel, Options{EnableMetrics: true})
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get(url + "/loglevel")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(strings.TrimSuffix(url, "/admin") + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)
	require.Contains(t, families, "ledger_admin_test_count")
	assert.Equal(t, float64(3), families["ledger_admin_test_count"].GetMetric()[0].GetCounter().GetValue())
}
