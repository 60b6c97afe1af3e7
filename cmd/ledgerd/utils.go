// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/dposledger/ledger/events"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/lvldb"
	"github.com/dposledger/ledger/manager"
	"github.com/dposledger/ledger/milestone"
	"github.com/dposledger/ledger/staking/expiry"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	level, err := log.ParseLevel(ctx.String(verbosityFlag.Name))
	if err != nil {
		fatal(err)
	}
	var lvl slog.LevelVar
	lvl.Set(level)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, &lvl)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return &lvl
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".dposledger")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func selectMilestones(ctx *cli.Context) *milestone.Set {
	var (
		ms  *milestone.Set
		err error
	)
	if path := ctx.String(milestonesFlag.Name); path != "" {
		ms, err = milestone.Load(path)
	} else {
		ms, err = milestone.ForNetwork(ctx.String(networkFlag.Name))
	}
	if err != nil {
		fatal(err)
	}
	return ms
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func openMainDB(ctx *cli.Context, dataDir string) *lvldb.LevelDB {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	log.Debug("cache size(MB)", "size", cacheMB)

	dir := filepath.Join(dataDir, "wallets.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 500,
	})
	if err != nil {
		fatal(fmt.Sprintf("open wallet database [%v]: %v", dir, err))
	}
	return db
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 64 {
		sizeMB = 64
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/4 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func openScheduler(dataDir string) *expiry.Scheduler {
	path := filepath.Join(dataDir, "expiry.db")
	store, err := expiry.NewSQLiteStore(path)
	if err != nil {
		fatal(fmt.Sprintf("open expiry database [%v]: %v", path, err))
	}
	scheduler, err := expiry.New(store)
	if err != nil {
		fatal(fmt.Sprintf("load expiry schedule: %v", err))
	}
	log.Debug("expiry database opened", "path", store.Path(), "sqlite", store.DriverVersion())
	return scheduler
}

// ledgerEnv is everything a command needs to work on a data dir.
type ledgerEnv struct {
	ms        *milestone.Set
	db        *lvldb.LevelDB
	scheduler *expiry.Scheduler
	bus       *events.Bus
	manager   *manager.Manager
}

func openLedger(ctx *cli.Context) *ledgerEnv {
	ms := selectMilestones(ctx)
	dataDir := makeDataDir(ctx)
	env := &ledgerEnv{
		ms:        ms,
		db:        openMainDB(ctx, dataDir),
		scheduler: openScheduler(dataDir),
		bus:       events.NewBus(),
	}
	m, err := manager.New(env.db, env.scheduler, ms, env.bus, manager.Options{
		SelfCheck: ctx.Bool(selfCheckFlag.Name),
	})
	if err != nil {
		fatal(fmt.Sprintf("load ledger: %v", err))
	}
	env.manager = m

	if path := ctx.String(genesisFlag.Name); path != "" && m.Tip().Height == 0 && m.Wallets().Len() == 0 {
		g, err := manager.LoadGenesis(path)
		if err != nil {
			fatal(err)
		}
		if err := m.Seed(g); err != nil {
			fatal(fmt.Sprintf("seed genesis: %v", err))
		}
	}
	return env
}

func (e *ledgerEnv) Close() {
	e.bus.Close()
	log.Info("closing expiry database...")
	if err := e.scheduler.Close(); err != nil {
		log.Warn("failed to close expiry database", "err", err)
	}
	log.Info("closing wallet database...")
	if err := e.db.Close(); err != nil {
		log.Warn("failed to close wallet database", "err", err)
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// checkClockOffset warns when the local clock drifts by more than half a
// block interval, which would skew the stake timestamp checks of the pool.
func checkClockOffset(blockTime uint32) {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > time.Duration(blockTime)*time.Second/2 {
		log.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}
