// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	networkFlag = cli.StringFlag{
		Name:  "network",
		Value: "mainnet",
		Usage: "built-in milestone set (mainnet|devnet)",
	}
	milestonesFlag = cli.StringFlag{
		Name:  "milestones",
		Usage: "path to a YAML or JSON milestone file, overrides --network",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a YAML or JSON genesis allocation file, applied to an empty ledger",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the ledger databases",
	}
	blocksFlag = cli.StringFlag{
		Name:  "blocks",
		Usage: "path to a stream of JSON encoded blocks to apply",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "megabytes of ram allocated to the wallet database",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Value: "info",
		Usage: "log verbosity (crit|error|warn|info|debug|trace)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "log-json",
		Usage: "output logs in JSON format",
	}
	selfCheckFlag = cli.BoolFlag{
		Name:  "self-check",
		Usage: "verify every delegate vote balance after each block",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Usage: "admin API listening address, disabled when empty",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "expose Prometheus metrics on the admin API",
	}
	maxIdleFlag = cli.DurationFlag{
		Name:  "max-idle",
		Usage: "report unhealthy when no block was applied for this long",
	}
	serveFlag = cli.BoolFlag{
		Name:  "serve",
		Usage: "keep serving the admin API after the blocks are applied, until interrupted",
	}
	fixFlag = cli.BoolFlag{
		Name:  "fix",
		Usage: "rebuild derived state that fails the check and persist it",
	}
	topFlag = cli.IntFlag{
		Name:  "top",
		Usage: "print only the first n delegates",
	}
)
