// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/rccstake/rccstake/log"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "rccstake")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	poolFlags := []cli.Flag{minDepositFlag, lockFlag}

	return &cli.App{
		Version: fullVersion(),
		Name:    "rccstake",
		Usage:   "Multi-pool staking ledger",
		Flags: []cli.Flag{
			configFlag,
			envFileFlag,
			dataDirFlag,
			callerFlag,
			heightFlag,
			verbosityFlag,
			vmoduleFlag,
			enableMetricsFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "deploy",
				Usage:  "initialize the contract with the configured schedule, pools and funding",
				Action: deployAction,
			},
			{
				Name:  "pool",
				Usage: "pool administration",
				Subcommands: []cli.Command{
					{
						Name:   "add",
						Usage:  "add a pool",
						Flags:  append([]cli.Flag{tokenFlag, weightFlag}, poolFlags...),
						Action: poolAddAction,
					},
					{
						Name:      "weight",
						Usage:     "change the weight of a pool",
						ArgsUsage: "POOL WEIGHT",
						Action:    poolWeightAction,
					},
					{
						Name:      "update",
						Usage:     "change the minimum deposit and the unstake lock of a pool",
						ArgsUsage: "POOL",
						Flags:     poolFlags,
						Action:    poolUpdateAction,
					},
					{
						Name:      "sync",
						Usage:     "accrue rewards of one pool, or all pools",
						ArgsUsage: "[POOL]",
						Action:    poolSyncAction,
					},
				},
			},
			{
				Name:      "deposit",
				Usage:     "stake tokens into a pool",
				ArgsUsage: "POOL AMOUNT",
				Action:    depositAction,
			},
			{
				Name:      "request-withdraw",
				Usage:     "unstake tokens, withdrawable after the pool's lock",
				ArgsUsage: "POOL AMOUNT",
				Action:    requestWithdrawAction,
			},
			{
				Name:      "withdraw",
				Usage:     "withdraw every unlocked request",
				ArgsUsage: "POOL",
				Action:    withdrawAction,
			},
			{
				Name:      "claim",
				Usage:     "claim rewards",
				ArgsUsage: "POOL",
				Action:    claimAction,
			},
			{
				Name:   "pause",
				Usage:  "pause deposits, withdraw requests and claims",
				Action: pauseAction,
			},
			{
				Name:   "unpause",
				Usage:  "resume operations",
				Action: unpauseAction,
			},
			{
				Name:      "transfer-ownership",
				Usage:     "hand the admin role to another address",
				ArgsUsage: "NEW_OWNER",
				Action:    transferOwnershipAction,
			},
			{
				Name:   "set-schedule",
				Usage:  "change the reward window or rate",
				Flags:  []cli.Flag{startFlag, endFlag, rateFlag},
				Action: setScheduleAction,
			},
			{
				Name:   "upgrade",
				Usage:  "migrate storage to the schema of this build",
				Action: upgradeAction,
			},
			{
				Name:      "mint",
				Usage:     "mint tokens",
				ArgsUsage: "TOKEN TO AMOUNT",
				Action:    mintAction,
			},
			{
				Name:      "approve",
				Usage:     "allow a spender to move the caller's tokens",
				ArgsUsage: "TOKEN SPENDER AMOUNT",
				Action:    approveAction,
			},
			{
				Name:      "advance",
				Usage:     "move the current height forward",
				ArgsUsage: "HEIGHT",
				Action:    advanceAction,
			},
			{
				Name:      "info",
				Usage:     "print the schedule, a pool or a user position",
				ArgsUsage: "[POOL [USER]]",
				Action:    infoAction,
			},
			{
				Name:   "serve",
				Usage:  "serve the HTTP API",
				Flags:  []cli.Flag{apiAddrFlag, apiCorsFlag, enableAPILogsFlag, blockIntervalFlag},
				Action: serveAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
