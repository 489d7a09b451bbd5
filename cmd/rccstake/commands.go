// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rccstake/rccstake/api/pools"
	"github.com/rccstake/rccstake/runtime"
)

// deployAction initializes the contract from the config, then adds the configured pools and grants.
func deployAction(ctx *cli.Context) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	caller, err := callerAddress(ctx)
	if err != nil {
		return err
	}
	height, err := toUint32(ctx.GlobalUint64(heightFlag.Name))
	if err != nil {
		return err
	}
	initArgs, err := n.cfg.Validate()
	if err != nil {
		return err
	}
	poolArgs, _ := n.cfg.PoolArgs()
	grants, _ := n.cfg.GrantArgs()

	run := func(method string, fn func(c *runtime.Call) error) error {
		r, err := n.rt.Execute(caller, height, method, fn)
		if err != nil {
			return err
		}
		return printReceipt(os.Stdout, r)
	}

	if err := run("initialize", func(c *runtime.Call) error {
		return c.Contract.Initialize(initArgs.RewardToken, initArgs.StartHeight, initArgs.EndHeight, initArgs.RewardPerHeight, initArgs.Owner)
	}); err != nil {
		return err
	}
	for _, p := range poolArgs {
		if err := run("addPool", func(c *runtime.Call) error {
			_, err := c.Contract.AddPool(p.StakingToken, p.Weight, p.MinDeposit, p.UnstakeLockDuration)
			return err
		}); err != nil {
			return err
		}
	}
	for _, g := range grants {
		if err := run("mint", func(c *runtime.Call) error {
			return c.Token(g.Token).Mint(g.To, g.Amount)
		}); err != nil {
			return err
		}
	}
	logger.Info("deployed", "contract", n.cfg.ContractAddress(), "pools", len(poolArgs), "grants", len(grants))
	return nil
}

func poolAddAction(ctx *cli.Context) error {
	token, err := parseAddress(ctx.String(tokenFlag.Name))
	if err != nil {
		return err
	}
	minDeposit, err := parseAmount(ctx.String(minDepositFlag.Name))
	if err != nil {
		return err
	}
	lock, err := toUint32(ctx.Uint64(lockFlag.Name))
	if err != nil {
		return err
	}
	weight := ctx.Uint64(weightFlag.Name)
	return execute(ctx, "addPool", func(c *runtime.Call) error {
		_, err := c.Contract.AddPool(token, weight, minDeposit, lock)
		return err
	})
}

func poolWeightAction(ctx *cli.Context) error {
	a, err := args(ctx, "POOL", "WEIGHT")
	if err != nil {
		return err
	}
	id, err := parseUint(a[0], 64)
	if err != nil {
		return err
	}
	weight, err := parseUint(a[1], 64)
	if err != nil {
		return err
	}
	return execute(ctx, "setPoolWeight", func(c *runtime.Call) error {
		return c.Contract.SetPoolWeight(id, weight)
	})
}

func poolUpdateAction(ctx *cli.Context) error {
	a, err := args(ctx, "POOL")
	if err != nil {
		return err
	}
	id, err := parseUint(a[0], 64)
	if err != nil {
		return err
	}
	minDeposit, err := parseAmount(ctx.String(minDepositFlag.Name))
	if err != nil {
		return err
	}
	lock, err := toUint32(ctx.Uint64(lockFlag.Name))
	if err != nil {
		return err
	}
	return execute(ctx, "updatePool", func(c *runtime.Call) error {
		return c.Contract.UpdatePool(id, minDeposit, lock)
	})
}

func poolSyncAction(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return execute(ctx, "syncAllPools", func(c *runtime.Call) error {
			return c.Contract.SyncAllPools()
		})
	}
	a, err := args(ctx, "POOL")
	if err != nil {
		return err
	}
	id, err := parseUint(a[0], 64)
	if err != nil {
		return err
	}
	return execute(ctx, "syncPool", func(c *runtime.Call) error {
		return c.Contract.SyncPool(id)
	})
}

// poolAmountAction builds the actions taking a pool id and an amount.
func poolAmountAction(method string, fn func(c *runtime.Call, id uint64, amount *big.Int) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		a, err := args(ctx, "POOL", "AMOUNT")
		if err != nil {
			return err
		}
		id, err := parseUint(a[0], 64)
		if err != nil {
			return err
		}
		amount, err := parseAmount(a[1])
		if err != nil {
			return err
		}
		return execute(ctx, method, func(c *runtime.Call) error {
			return fn(c, id, amount)
		})
	}
}

// poolOnlyAction builds the actions taking a pool id.
func poolOnlyAction(method string, fn func(c *runtime.Call, id uint64) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		a, err := args(ctx, "POOL")
		if err != nil {
			return err
		}
		id, err := parseUint(a[0], 64)
		if err != nil {
			return err
		}
		return execute(ctx, method, func(c *runtime.Call) error {
			return fn(c, id)
		})
	}
}

var (
	depositAction = poolAmountAction("deposit", func(c *runtime.Call, id uint64, amount *big.Int) error {
		return c.Contract.Deposit(id, amount)
	})
	requestWithdrawAction = poolAmountAction("requestWithdraw", func(c *runtime.Call, id uint64, amount *big.Int) error {
		return c.Contract.RequestWithdraw(id, amount)
	})
	withdrawAction = poolOnlyAction("withdraw", func(c *runtime.Call, id uint64) error {
		_, err := c.Contract.Withdraw(id)
		return err
	})
	claimAction = poolOnlyAction("claim", func(c *runtime.Call, id uint64) error {
		_, err := c.Contract.Claim(id)
		return err
	})
)

func pauseAction(ctx *cli.Context) error {
	return execute(ctx, "pause", func(c *runtime.Call) error {
		return c.Contract.Pause()
	})
}

func unpauseAction(ctx *cli.Context) error {
	return execute(ctx, "unpause", func(c *runtime.Call) error {
		return c.Contract.Unpause()
	})
}

func transferOwnershipAction(ctx *cli.Context) error {
	a, err := args(ctx, "NEW_OWNER")
	if err != nil {
		return err
	}
	newOwner, err := parseAddress(a[0])
	if err != nil {
		return err
	}
	return execute(ctx, "transferOwnership", func(c *runtime.Call) error {
		return c.Contract.TransferOwnership(newOwner)
	})
}

// setScheduleAction applies each schedule flag given, in start, end, rate order.
func setScheduleAction(ctx *cli.Context) error {
	var changes []func(c *runtime.Call) error
	if ctx.IsSet(startFlag.Name) {
		start, err := toUint32(ctx.Uint64(startFlag.Name))
		if err != nil {
			return err
		}
		changes = append(changes, func(c *runtime.Call) error { return c.Contract.SetStartHeight(start) })
	}
	if ctx.IsSet(endFlag.Name) {
		end, err := toUint32(ctx.Uint64(endFlag.Name))
		if err != nil {
			return err
		}
		changes = append(changes, func(c *runtime.Call) error { return c.Contract.SetEndHeight(end) })
	}
	if ctx.IsSet(rateFlag.Name) {
		rate, err := parseAmount(ctx.String(rateFlag.Name))
		if err != nil {
			return err
		}
		changes = append(changes, func(c *runtime.Call) error { return c.Contract.SetRewardPerHeight(rate) })
	}
	if len(changes) == 0 {
		return errors.New("nothing to change, set --start, --end or --rate")
	}
	return execute(ctx, "setSchedule", func(c *runtime.Call) error {
		for _, change := range changes {
			if err := change(c); err != nil {
				return err
			}
		}
		return nil
	})
}

func upgradeAction(ctx *cli.Context) error {
	return execute(ctx, "upgrade", func(c *runtime.Call) error {
		return c.Contract.Upgrade()
	})
}

func mintAction(ctx *cli.Context) error {
	a, err := args(ctx, "TOKEN", "TO", "AMOUNT")
	if err != nil {
		return err
	}
	token, err := parseAddress(a[0])
	if err != nil {
		return err
	}
	to, err := parseAddress(a[1])
	if err != nil {
		return err
	}
	amount, err := parseAmount(a[2])
	if err != nil {
		return err
	}
	return execute(ctx, "mint", func(c *runtime.Call) error {
		return c.Token(token).Mint(to, amount)
	})
}

func approveAction(ctx *cli.Context) error {
	a, err := args(ctx, "TOKEN", "SPENDER", "AMOUNT")
	if err != nil {
		return err
	}
	token, err := parseAddress(a[0])
	if err != nil {
		return err
	}
	spender, err := parseAddress(a[1])
	if err != nil {
		return err
	}
	amount, err := parseAmount(a[2])
	if err != nil {
		return err
	}
	return execute(ctx, "approve", func(c *runtime.Call) error {
		return c.Token(token).Approve(c.Env.Caller(), spender, amount)
	})
}

func advanceAction(ctx *cli.Context) error {
	a, err := args(ctx, "HEIGHT")
	if err != nil {
		return err
	}
	v, err := parseUint(a[0], 32)
	if err != nil {
		return err
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()
	if err := n.rt.Advance(uint32(v)); err != nil {
		return err
	}
	logger.Info("advanced", "height", v)
	return nil
}

// infoAction prints the schedule, a pool, or a user position, depending on the arguments.
func infoAction(ctx *cli.Context) error {
	if ctx.NArg() > 2 {
		return errors.New("expected arguments: [POOL [USER]]")
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	var result any
	err = n.rt.View(func(c *runtime.Call) error {
		height := c.Env.BlockContext().Number
		if ctx.NArg() == 0 {
			sched, err := c.Contract.Schedule()
			if err != nil {
				return err
			}
			s := pools.ConvertSchedule(sched)
			s.Height = height
			if s.Initialized, err = c.Contract.Initialized(); err != nil {
				return err
			}
			if s.Owner, err = c.Contract.Owner(); err != nil {
				return err
			}
			if s.Paused, err = c.Contract.Paused(); err != nil {
				return err
			}
			if s.PoolLength, err = c.Contract.PoolLength(); err != nil {
				return err
			}
			if s.TotalWeight, err = c.Contract.TotalWeight(); err != nil {
				return err
			}
			result = s
			return nil
		}
		id, err := parseUint(ctx.Args().Get(0), 64)
		if err != nil {
			return err
		}
		if ctx.NArg() == 1 {
			p, err := c.Contract.PoolInfo(id)
			if err != nil {
				return err
			}
			result = pools.ConvertPool(id, p)
			return nil
		}
		user, err := parseAddress(ctx.Args().Get(1))
		if err != nil {
			return err
		}
		pos, err := c.Contract.UserInfo(id, user)
		if err != nil {
			return err
		}
		pending, err := c.Contract.PendingReward(id, user)
		if err != nil {
			return err
		}
		result = struct {
			*pools.User
			Pending string `json:"pending"`
		}{pools.ConvertUser(id, user, pos, height), pending.String()}
		return nil
	})
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, result)
}
