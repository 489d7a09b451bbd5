// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rccstake

import (
	"math/big"

	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/rccstake/pool"
	"github.com/rccstake/rccstake/builtin/rccstake/position"
	"github.com/rccstake/rccstake/rcc"
)

// PendingReward returns what the user could claim at the current height. Storage is not modified.
func (c *RCCStake) PendingReward(id uint64, user rcc.Address) (*big.Int, error) {
	sched, err := c.governor.Schedule()
	if err != nil {
		return nil, err
	}
	acc, err := c.pools.Pending(id, sched, c.height())
	if err != nil {
		return nil, err
	}
	pos, err := c.positions.Get(id, user)
	if err != nil {
		return nil, err
	}
	return pos.Claimable(acc)
}

// PoolInfo returns the stored pool, as of its last sync.
func (c *RCCStake) PoolInfo(id uint64) (*pool.Pool, error) {
	return c.pools.Get(id)
}

// UserInfo returns the stored position of user in pool id.
func (c *RCCStake) UserInfo(id uint64, user rcc.Address) (*position.Position, error) {
	if _, err := c.pools.Get(id); err != nil {
		return nil, err
	}
	return c.positions.Get(id, user)
}

// WithdrawAmount returns the total requested and the part unlocked at the current height.
func (c *RCCStake) WithdrawAmount(id uint64, user rcc.Address) (requested, unlocked *big.Int, err error) {
	pos, err := c.UserInfo(id, user)
	if err != nil {
		return nil, nil, err
	}
	requested, unlocked = pos.WithdrawAmount(c.height())
	return requested, unlocked, nil
}

func (c *RCCStake) PoolLength() (uint64, error) {
	return c.pools.Count()
}

func (c *RCCStake) TotalWeight() (uint64, error) {
	return c.pools.TotalWeight()
}

func (c *RCCStake) Schedule() (*governor.Schedule, error) {
	return c.governor.Schedule()
}

func (c *RCCStake) Owner() (rcc.Address, error) {
	return c.governor.Owner()
}

func (c *RCCStake) Paused() (bool, error) {
	return c.governor.IsPaused()
}

func (c *RCCStake) Initialized() (bool, error) {
	return c.governor.IsInitialized()
}

func (c *RCCStake) SchemaVersion() (uint32, error) {
	return c.governor.SchemaVersion()
}

func (c *RCCStake) LayoutHash() (rcc.Bytes32, error) {
	return c.governor.LayoutHash()
}
