// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/rcc"
)

var scale = uint256.MustFromBig(rcc.Scale)

// Accrue advances the pool's accumulator to height and returns the updated copy.
// p is not modified. Rewards only accrue within [StartHeight, EndHeight] and only
// while the pool has stake; heights without stake are skipped, not carried over.
func Accrue(p *Pool, sched *governor.Schedule, totalWeight uint64, height uint32) (*Pool, error) {
	next := p.Clone()

	h := min(height, sched.EndHeight)
	if h <= next.LastAccrualHeight {
		return next, nil
	}
	from := max(next.LastAccrualHeight, sched.StartHeight)
	if h <= from || next.TotalStaked.Sign() == 0 || next.Weight == 0 || totalWeight == 0 {
		next.LastAccrualHeight = h
		return next, nil
	}

	perShare, err := rewardPerShare(uint64(h-from), sched.RewardPerHeight, next.Weight, totalWeight, next.TotalStaked)
	if err != nil {
		return nil, err
	}
	acc, overflow := uint256.FromBig(next.AccRewardPerShare)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	if _, overflow := acc.AddOverflow(acc, perShare); overflow {
		return nil, reverts.ErrOverflow
	}

	next.AccRewardPerShare = acc.ToBig()
	next.LastAccrualHeight = h
	return next, nil
}

// rewardPerShare computes blocks*rate*weight/totalWeight*scale/staked, truncating at each division.
func rewardPerShare(blocks uint64, rate *big.Int, weight, totalWeight uint64, staked *big.Int) (*uint256.Int, error) {
	r, overflow := uint256.FromBig(rate)
	if overflow {
		return nil, reverts.ErrOverflow
	}
	s, overflow := uint256.FromBig(staked)
	if overflow {
		return nil, reverts.ErrOverflow
	}

	reward := uint256.NewInt(blocks)
	if _, overflow := reward.MulOverflow(reward, r); overflow {
		return nil, reverts.ErrOverflow
	}
	if _, overflow := reward.MulOverflow(reward, uint256.NewInt(weight)); overflow {
		return nil, reverts.ErrOverflow
	}
	reward.Div(reward, uint256.NewInt(totalWeight))

	if _, overflow := reward.MulOverflow(reward, scale); overflow {
		return nil, reverts.ErrOverflow
	}
	return reward.Div(reward, s), nil
}

// PendingAt projects the accumulator at height without touching storage.
func PendingAt(p *Pool, sched *governor.Schedule, totalWeight uint64, height uint32) (*big.Int, error) {
	next, err := Accrue(p, sched, totalWeight, height)
	if err != nil {
		return nil, err
	}
	return next.AccRewardPerShare, nil
}
