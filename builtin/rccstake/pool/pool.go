// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/rccstake/rccstake/rcc"
)

// Pool is a staking pool. New fields may only be appended with the `rlp:"optional"` tag.
type Pool struct {
	StakingToken        rcc.Address
	Weight              uint64
	LastAccrualHeight   uint32
	AccRewardPerShare   *big.Int // reward per staked unit, scaled by rcc.Scale
	TotalStaked         *big.Int
	MinDeposit          *big.Int
	UnstakeLockDuration uint32
	CreatedHeight       uint32
}

// Clone returns a deep copy of p.
func (p *Pool) Clone() *Pool {
	cpy := *p
	cpy.AccRewardPerShare = clone(p.AccRewardPerShare)
	cpy.TotalStaked = clone(p.TotalStaked)
	cpy.MinDeposit = clone(p.MinDeposit)
	return &cpy
}

func clone(i *big.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i)
}
