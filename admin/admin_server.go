// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/dposledger/ledger/co"
	"github.com/dposledger/ledger/events"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/manager"
	"github.com/dposledger/ledger/metrics"
)

var logger = log.WithContext("pkg", "admin")

// TipSource reports the last applied block.
type TipSource interface {
	Tip() manager.Tip
}

// Options selects the optional endpoints.
type Options struct {
	Tips          TipSource
	Bus           *events.Bus
	MaxIdle       time.Duration // health turns red after this long without a block
	EnableMetrics bool
}

func logLevelHandler(logLevel *slog.LevelVar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getLogLevelHandler(logLevel).ServeHTTP(w, r)
		case http.MethodPost:
			postLogLevelHandler(logLevel).ServeHTTP(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// HTTPHandler routes the admin endpoints.
func HTTPHandler(logLevel *slog.LevelVar, opts Options) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/admin/loglevel", logLevelHandler(logLevel))
	if opts.Tips != nil {
		router.HandleFunc("/admin/health", healthHandler(opts.Tips, opts.MaxIdle)).Methods(http.MethodGet)
	}
	if opts.Bus != nil {
		// not compressed, the upgrade needs the raw connection
		router.HandleFunc("/admin/events", eventsHandler(opts.Bus)).Methods(http.MethodGet)
	}
	if opts.EnableMetrics {
		router.Handle("/metrics", metrics.HTTPHandler()).Methods(http.MethodGet)
	}
	return router
}

// StartServer serves the admin API on addr and returns its base url and a
// function that stops it.
func StartServer(addr string, logLevel *slog.LevelVar, opts Options) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	router := HTTPHandler(logLevel, opts)
	handler := handlers.CompressHandler(router)
	if opts.Bus != nil {
		handler = skipCompression(router, handler, "/admin/events")
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Warn("admin server stopped", "err", err)
		}
	})
	logger.Info("admin API started", "addr", listener.Addr().String())
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

// skipCompression routes requests for path around the compressing handler.
func skipCompression(raw, compressed http.Handler, path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == path {
			raw.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}
