// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/manager"
)

type logLevelRequest struct {
	Level string `json:"level"`
}

type logLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type healthResponse struct {
	Healthy bool        `json:"healthy"`
	Tip     manager.Tip `json:"tip"`
	Since   *string     `json:"since,omitempty"`
}

type errorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, errCode int, errMsg string) {
	writeJSON(w, errCode, errorResponse{
		ErrorCode:    errCode,
		ErrorMessage: errMsg,
	})
}

func getLogLevelHandler(logLevel *slog.LevelVar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, logLevelResponse{
			CurrentLevel: log.LevelString(logLevel.Level()),
		})
	}
}

func postLogLevelHandler(logLevel *slog.LevelVar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req logLevelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		level, err := log.ParseLevel(req.Level)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid verbosity level")
			return
		}
		logLevel.Set(level)
		writeJSON(w, http.StatusOK, logLevelResponse{
			CurrentLevel: log.LevelString(logLevel.Level()),
		})
	}
}

// healthHandler reports unhealthy when no block was applied within maxIdle.
func healthHandler(tips TipSource, maxIdle time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tip := tips.Tip()
		resp := healthResponse{Tip: tip, Healthy: true}
		if !tip.AppliedAt.IsZero() {
			since := time.Since(tip.AppliedAt).Round(time.Second).String()
			resp.Since = &since
			resp.Healthy = maxIdle <= 0 || time.Since(tip.AppliedAt) <= maxIdle
		}
		code := http.StatusOK
		if !resp.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
