// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rccstake

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/rccstake/pool"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/rcc"
)

// Initialize sets the reward schedule and the owner. The owner defaults to the caller when admin is nil.
func (c *RCCStake) Initialize(rewardToken rcc.Address, startHeight, endHeight uint32, rewardPerHeight *big.Int, admin *rcc.Address) error {
	return c.call("initialize", func() error {
		if rewardToken.IsZero() {
			return reverts.ErrInvalidAddress
		}
		owner := c.env.Caller()
		if admin != nil {
			owner = *admin
		}
		sched := &governor.Schedule{
			RewardToken:     rewardToken,
			StartHeight:     startHeight,
			EndHeight:       endHeight,
			RewardPerHeight: rewardPerHeight,
		}
		if err := c.governor.Initialize(sched, owner, c.code.Layout, c.code.Version); err != nil {
			return err
		}
		logger.Info("initialized", "rewardToken", rewardToken, "start", startHeight, "end", endHeight, "rate", rewardPerHeight, "owner", owner)

		if err := c.emit("OwnershipTransferred", []rcc.Bytes32{{}, addressTopic(owner)}); err != nil {
			return err
		}
		return c.emit("Initialized", nil, uint64(c.code.Version))
	})
}

// AddPool appends a staking pool. Every existing pool is synced first since the total weight changes.
func (c *RCCStake) AddPool(stakingToken rcc.Address, weight uint64, minDeposit *big.Int, lockDuration uint32) (uint64, error) {
	var id uint64
	err := c.call("addPool", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if weight == 0 {
			return reverts.ErrInvalidWeight
		}
		sched, err := c.governor.Schedule()
		if err != nil {
			return err
		}
		if err := c.syncAll(sched); err != nil {
			return err
		}
		if id, err = c.pools.Add(stakingToken, weight, minDeposit, lockDuration, c.height(), sched); err != nil {
			return err
		}
		c.updateGauges()
		logger.Info("pool added", "id", id, "token", stakingToken, "weight", weight)

		return c.emit("PoolAdded",
			[]rcc.Bytes32{poolTopic(id), addressTopic(stakingToken)},
			u256(weight), minDeposit, u256(uint64(lockDuration)))
	})
	return id, err
}

// SetPoolWeight changes the weight of a pool. A weight of zero stops its rewards.
func (c *RCCStake) SetPoolWeight(id uint64, weight uint64) error {
	return c.call("setPoolWeight", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if _, err := c.pools.Get(id); err != nil {
			return err
		}
		sched, err := c.governor.Schedule()
		if err != nil {
			return err
		}
		if err := c.syncAll(sched); err != nil {
			return err
		}
		total, err := c.pools.SetWeight(id, weight)
		if err != nil {
			return err
		}
		c.updateGauges()
		logger.Info("pool weight changed", "id", id, "weight", weight, "total", total)

		return c.emit("WeightChanged", []rcc.Bytes32{poolTopic(id)}, u256(weight), u256(total))
	})
}

// UpdatePool changes the deposit minimum and the unstake lock duration of a pool.
// Requests made earlier keep their unlock height.
func (c *RCCStake) UpdatePool(id uint64, minDeposit *big.Int, lockDuration uint32) error {
	return c.call("updatePool", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if _, err := c.pools.SetInfo(id, minDeposit, lockDuration); err != nil {
			return err
		}
		return c.emit("PoolUpdated", []rcc.Bytes32{poolTopic(id)}, minDeposit, u256(uint64(lockDuration)))
	})
}

// SyncPool accrues rewards of one pool up to the current height.
func (c *RCCStake) SyncPool(id uint64) error {
	return c.call("syncPool", func() error {
		if err := c.governor.RequireInitialized(); err != nil {
			return err
		}
		sched, err := c.governor.Schedule()
		if err != nil {
			return err
		}
		p, err := c.pools.Sync(id, sched, c.height())
		if err != nil {
			return err
		}
		return c.emitSynced(id, p)
	})
}

// SyncAllPools accrues rewards of every pool up to the current height.
func (c *RCCStake) SyncAllPools() error {
	return c.call("syncAllPools", func() error {
		if err := c.governor.RequireInitialized(); err != nil {
			return err
		}
		sched, err := c.governor.Schedule()
		if err != nil {
			return err
		}
		return c.pools.SyncAll(sched, c.height(), c.emitSynced)
	})
}

func (c *RCCStake) emitSynced(id uint64, p *pool.Pool) error {
	return c.emit("PoolSynced", []rcc.Bytes32{poolTopic(id)},
		u256(uint64(p.LastAccrualHeight)), p.TotalStaked, p.AccRewardPerShare)
}

func (c *RCCStake) Pause() error {
	return c.call("pause", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if err := c.governor.SetPaused(true); err != nil {
			return err
		}
		logger.Info("paused", "by", c.env.Caller())
		return c.emit("Paused", nil, common.Address(c.env.Caller()))
	})
}

func (c *RCCStake) Unpause() error {
	return c.call("unpause", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if err := c.governor.SetPaused(false); err != nil {
			return err
		}
		logger.Info("unpaused", "by", c.env.Caller())
		return c.emit("Unpaused", nil, common.Address(c.env.Caller()))
	})
}

func (c *RCCStake) TransferOwnership(newOwner rcc.Address) error {
	return c.call("transferOwnership", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		prev := c.env.Caller()
		if err := c.governor.SetOwner(newOwner); err != nil {
			return err
		}
		logger.Info("ownership transferred", "from", prev, "to", newOwner)
		return c.emit("OwnershipTransferred", []rcc.Bytes32{addressTopic(prev), addressTopic(newOwner)})
	})
}

func (c *RCCStake) SetStartHeight(height uint32) error {
	return c.updateSchedule("setStartHeight", func(s *governor.Schedule) { s.StartHeight = height })
}

func (c *RCCStake) SetEndHeight(height uint32) error {
	return c.updateSchedule("setEndHeight", func(s *governor.Schedule) { s.EndHeight = height })
}

func (c *RCCStake) SetRewardPerHeight(rate *big.Int) error {
	return c.updateSchedule("setRewardPerHeight", func(s *governor.Schedule) { s.RewardPerHeight = rate })
}

// updateSchedule settles every pool under the old schedule before applying the change.
func (c *RCCStake) updateSchedule(method string, change func(s *governor.Schedule)) error {
	return c.call(method, func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		sched, err := c.governor.Schedule()
		if err != nil {
			return err
		}
		if err := c.syncAll(sched); err != nil {
			return err
		}
		change(sched)
		if err := c.governor.SetSchedule(sched); err != nil {
			return err
		}
		logger.Info("schedule updated", "start", sched.StartHeight, "end", sched.EndHeight, "rate", sched.RewardPerHeight)
		return c.emit("ScheduleUpdated", nil,
			u256(uint64(sched.StartHeight)), u256(uint64(sched.EndHeight)), sched.RewardPerHeight)
	})
}

// Upgrade moves storage to the layout and schema version of the running code.
// Initialization is not repeated.
func (c *RCCStake) Upgrade() error {
	return c.call("upgrade", func() error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if err := c.governor.Upgrade(c.code.Layout, c.code.Version); err != nil {
			return err
		}
		logger.Info("upgraded", "version", c.code.Version, "layout", c.code.Layout.Hash())
		return c.emit("Upgraded", nil, uint64(c.code.Version))
	})
}

func (c *RCCStake) updateGauges() {
	if count, err := c.pools.Count(); err == nil {
		metricPools().Set(int64(count))
	}
	if total, err := c.pools.TotalWeight(); err == nil {
		metricTotalWeight().Set(int64(total))
	}
}
