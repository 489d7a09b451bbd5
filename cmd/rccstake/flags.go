// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rccstake/rccstake/log"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML config file",
	}
	envFileFlag = cli.StringFlag{
		Name:  "env-file",
		Usage: "path to a .env file to load before reading the config (default ./.env)",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for the ledger database (overrides config)",
	}
	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "address the call is made from",
	}
	heightFlag = cli.Uint64Flag{
		Name:  "height",
		Usage: "height the call is made at (default current height)",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: log.LvlInfo,
		Usage: "log verbosity (0-5)",
	}
	vmoduleFlag = cli.StringFlag{
		Name:  "vmodule",
		Usage: "per-module verbosity, glog pattern syntax, e.g. rccstake/*=5",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}

	// serve
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address (overrides config)",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Usage: "comma separated list of domains from which to accept cross origin requests to API (overrides config)",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	blockIntervalFlag = cli.DurationFlag{
		Name:  "block-interval",
		Usage: "advance the height by one at this interval, 0 disables",
	}

	// pool
	tokenFlag = cli.StringFlag{
		Name:  "token",
		Usage: "token address",
	}
	weightFlag = cli.Uint64Flag{
		Name:  "weight",
		Value: 1,
		Usage: "pool weight",
	}
	minDepositFlag = cli.StringFlag{
		Name:  "min-deposit",
		Value: "0",
		Usage: "minimum deposit amount",
	}
	lockFlag = cli.Uint64Flag{
		Name:  "lock",
		Usage: "unstake lock duration in heights",
	}

	// schedule
	startFlag = cli.Uint64Flag{
		Name:  "start",
		Usage: "new start height",
	}
	endFlag = cli.Uint64Flag{
		Name:  "end",
		Usage: "new end height",
	}
	rateFlag = cli.StringFlag{
		Name:  "rate",
		Usage: "new reward per height",
	}
)
