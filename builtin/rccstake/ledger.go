// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rccstake

import (
	"math"
	"math/big"

	"github.com/rccstake/rccstake/builtin/rccstake/pool"
	"github.com/rccstake/rccstake/builtin/rccstake/position"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/rcc"
)

// settle syncs the pool and moves the user's pending reward into Accrued.
func (c *RCCStake) settle(id uint64, user rcc.Address) (*pool.Pool, *position.Position, error) {
	sched, err := c.governor.Schedule()
	if err != nil {
		return nil, nil, err
	}
	p, err := c.pools.Sync(id, sched, c.height())
	if err != nil {
		return nil, nil, err
	}
	pos, err := c.positions.Get(id, user)
	if err != nil {
		return nil, nil, err
	}
	if err := pos.Settle(p.AccRewardPerShare); err != nil {
		return nil, nil, err
	}
	return p, pos, nil
}

func (c *RCCStake) save(id uint64, p *pool.Pool, user rcc.Address, pos *position.Position) error {
	if err := c.pools.Set(id, p); err != nil {
		return err
	}
	return c.positions.Set(id, user, pos)
}

// Deposit stakes amount of the pool's staking token.
func (c *RCCStake) Deposit(id uint64, amount *big.Int) error {
	return c.call("deposit", func() error {
		if err := c.governor.RequireInitialized(); err != nil {
			return err
		}
		if err := c.governor.RequireNotPaused(); err != nil {
			return err
		}
		user := c.env.Caller()
		p, err := c.pools.Get(id)
		if err != nil {
			return err
		}
		if amount == nil || amount.Cmp(p.MinDeposit) < 0 {
			return reverts.ErrBelowMinimum
		}
		if amount.Sign() == 0 {
			return reverts.ErrZeroAmount
		}

		p, pos, err := c.settle(id, user)
		if err != nil {
			return err
		}
		pos.StakedAmount = new(big.Int).Add(pos.StakedAmount, amount)
		p.TotalStaked = new(big.Int).Add(p.TotalStaked, amount)
		if p.TotalStaked.BitLen() > 256 {
			return reverts.ErrOverflow
		}
		if err := pos.ResetDebt(p.AccRewardPerShare); err != nil {
			return err
		}
		if err := c.save(id, p, user, pos); err != nil {
			return err
		}

		if err := c.balances.TransferIn(p.StakingToken, user, amount); err != nil {
			return reverts.TransferFailed(err)
		}
		return c.emit("Deposited", []rcc.Bytes32{addressTopic(user), poolTopic(id)}, amount)
	})
}

// RequestWithdraw unstakes amount now and makes it withdrawable after the pool's lock duration.
func (c *RCCStake) RequestWithdraw(id uint64, amount *big.Int) error {
	return c.call("requestWithdraw", func() error {
		if err := c.governor.RequireInitialized(); err != nil {
			return err
		}
		if err := c.governor.RequireNotPaused(); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrZeroAmount
		}
		user := c.env.Caller()
		p, pos, err := c.settle(id, user)
		if err != nil {
			return err
		}
		if amount.Cmp(pos.StakedAmount) > 0 {
			return reverts.ErrInsufficientStake
		}
		if uint64(c.height())+uint64(p.UnstakeLockDuration) > math.MaxUint32 {
			return reverts.ErrOverflow
		}
		unlock := c.height() + p.UnstakeLockDuration

		pos.StakedAmount = new(big.Int).Sub(pos.StakedAmount, amount)
		p.TotalStaked = new(big.Int).Sub(p.TotalStaked, amount)
		pos.PendingWithdrawals = append(pos.PendingWithdrawals, &position.Withdrawal{
			Amount:       new(big.Int).Set(amount),
			UnlockHeight: unlock,
		})
		if err := pos.ResetDebt(p.AccRewardPerShare); err != nil {
			return err
		}
		if err := c.save(id, p, user, pos); err != nil {
			return err
		}
		return c.emit("WithdrawRequested",
			[]rcc.Bytes32{addressTopic(user), poolTopic(id)},
			amount, u256(uint64(unlock)))
	})
}

// Withdraw pays out every matured withdrawal request and returns the total.
// It returns zero, without an event, when nothing is unlocked. Withdraw works while paused.
func (c *RCCStake) Withdraw(id uint64) (*big.Int, error) {
	amount := new(big.Int)
	err := c.call("withdraw", func() error {
		if err := c.governor.RequireInitialized(); err != nil {
			return err
		}
		user := c.env.Caller()
		p, err := c.pools.Get(id)
		if err != nil {
			return err
		}
		pos, err := c.positions.Get(id, user)
		if err != nil {
			return err
		}
		amount = pos.TakeUnlocked(c.height())
		if amount.Sign() == 0 {
			return nil
		}
		if err := c.positions.Set(id, user, pos); err != nil {
			return err
		}

		if err := c.balances.TransferOut(p.StakingToken, user, amount); err != nil {
			return reverts.TransferFailed(err)
		}
		return c.emit("Withdrawn",
			[]rcc.Bytes32{addressTopic(user), poolTopic(id)},
			amount, u256(uint64(c.height())))
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// Claim pays the caller's accrued reward in the reward token and returns it.
func (c *RCCStake) Claim(id uint64) (*big.Int, error) {
	var reward *big.Int
	err := c.call("claim", func() error {
		if err := c.governor.RequireInitialized(); err != nil {
			return err
		}
		if err := c.governor.RequireNotPaused(); err != nil {
			return err
		}
		user := c.env.Caller()
		p, pos, err := c.settle(id, user)
		if err != nil {
			return err
		}
		reward = pos.Accrued
		if reward.Sign() == 0 {
			return reverts.ErrNothingToClaim
		}
		pos.Accrued = new(big.Int)
		pos.Claimed = new(big.Int).Add(pos.Claimed, reward)
		if err := c.save(id, p, user, pos); err != nil {
			return err
		}

		sched, err := c.governor.Schedule()
		if err != nil {
			return err
		}
		if err := c.balances.TransferOut(sched.RewardToken, user, reward); err != nil {
			return reverts.TransferFailed(err)
		}
		return c.emit("RewardClaimed", []rcc.Bytes32{addressTopic(user), poolTopic(id)}, reward)
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}
