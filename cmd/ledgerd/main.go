// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/dposledger/ledger/admin"
	"github.com/dposledger/ledger/block"
	"github.com/dposledger/ledger/co"
	"github.com/dposledger/ledger/log"
	"github.com/dposledger/ledger/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	ledgerFlags := []cli.Flag{
		networkFlag,
		milestonesFlag,
		genesisFlag,
		dataDirFlag,
		cacheFlag,
		verbosityFlag,
		jsonLogsFlag,
		selfCheckFlag,
	}
	app := cli.App{
		Version: fullVersion(),
		Name:    "ledgerd",
		Usage:   "Stake weighted voting ledger of a DPoS network",
		Flags: append(ledgerFlags,
			blocksFlag,
			adminAddrFlag,
			enableMetricsFlag,
			maxIdleFlag,
			serveFlag,
		),
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "verify",
				Usage:  "check vote balances and the expiry schedule against the wallets",
				Flags:  append(ledgerFlags, fixFlag),
				Action: verifyAction,
			},
			{
				Name:   "delegates",
				Usage:  "print the delegate ranking of the current round",
				Flags:  append(ledgerFlags, topFlag),
				Action: delegatesAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	logLevel := initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	env := openLedger(ctx)
	defer env.Close()

	tip := env.manager.Tip()
	log.Info("ledger loaded", "height", tip.Height, "wallets", env.manager.Wallets().Len(), "milestone", env.ms.At(tip.Height+1))

	var goes co.Goes
	defer goes.Wait()
	goes.Go(func() { checkClockOffset(env.ms.At(tip.Height).BlockTime) })

	if addr := ctx.String(adminAddrFlag.Name); addr != "" {
		url, stop, err := admin.StartServer(addr, logLevel, admin.Options{
			Tips:          env.manager,
			Bus:           env.bus,
			MaxIdle:       ctx.Duration(maxIdleFlag.Name),
			EnableMetrics: ctx.Bool(enableMetricsFlag.Name),
		})
		if err != nil {
			return err
		}
		defer func() {
			log.Info("stopping admin server...")
			stop()
		}()
		log.Info("admin server started", "url", url)
	}

	group, groupCtx := errgroup.WithContext(exitSignal)
	group.Go(func() error {
		if path := ctx.String(blocksFlag.Name); path != "" {
			if err := replay(groupCtx, env, path); err != nil {
				return err
			}
		}
		return env.manager.Commit()
	})
	if ctx.Bool(serveFlag.Name) {
		group.Go(func() error {
			<-groupCtx.Done()
			return nil
		})
	}
	err := group.Wait()
	if errors.Cause(err) == context.Canceled {
		// a replay cut short by a signal still persists what it applied
		return env.manager.Commit()
	}
	return err
}

func replay(ctx context.Context, env *ledgerEnv, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open blocks")
	}
	defer file.Close()

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	fmt.Println(">> Applying blocks <<")
	bar := pb.New64(size).
		SetUnits(pb.U_BYTES).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	var last *block.Block
	err = env.manager.Bootstrap(ctx, block.NewReader(bar.NewProxyReader(file)), func(b *block.Block) {
		last = b
	})
	if err != nil {
		return errors.WithMessage(err, "replay")
	}
	bar.Finish()
	if last != nil {
		log.Info("blocks applied", "height", last.Height, "id", last.ID())
	}
	return nil
}

func verifyAction(ctx *cli.Context) error {
	initLogger(ctx)
	env := openLedger(ctx)
	defer env.Close()

	err := env.manager.Verify()
	if err == nil {
		fmt.Println("ledger is consistent at height", env.manager.Tip().Height)
		return nil
	}
	if !ctx.Bool(fixFlag.Name) {
		return err
	}
	log.Warn("ledger check failed, rebuilding derived state", "err", err)
	fixed, err := env.manager.Reconcile()
	if err != nil {
		return err
	}
	if err := env.manager.Verify(); err != nil {
		return errors.WithMessage(err, "still inconsistent after rebuild")
	}
	if err := env.manager.Commit(); err != nil {
		return err
	}
	fmt.Printf("corrected %d entries at height %d\n", fixed, env.manager.Tip().Height)
	return nil
}

func delegatesAction(ctx *cli.Context) error {
	initLogger(ctx)
	env := openLedger(ctx)
	defer env.Close()

	height := env.manager.Tip().Height
	snap, ok, err := env.manager.Snapshot(height)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("no delegate ranking at height %d", height)
	}
	return printRanking(os.Stdout, snap.Round, snap.Ranked, len(snap.Active), ctx.Int(topFlag.Name))
}
