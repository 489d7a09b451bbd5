// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/rccstake/pool"
	"github.com/rccstake/rccstake/builtin/rccstake/position"
	"github.com/rccstake/rccstake/rcc"
)

type Pool struct {
	ID                  uint64                `json:"id"`
	StakingToken        rcc.Address           `json:"stakingToken"`
	Weight              uint64                `json:"weight"`
	LastAccrualHeight   uint32                `json:"lastAccrualHeight"`
	AccRewardPerShare   *math.HexOrDecimal256 `json:"accRewardPerShare"`
	TotalStaked         *math.HexOrDecimal256 `json:"totalStaked"`
	MinDeposit          *math.HexOrDecimal256 `json:"minDeposit"`
	UnstakeLockDuration uint32                `json:"unstakeLockDuration"`
	CreatedHeight       uint32                `json:"createdHeight"`
}

func ConvertPool(id uint64, p *pool.Pool) *Pool {
	return &Pool{
		ID:                  id,
		StakingToken:        p.StakingToken,
		Weight:              p.Weight,
		LastAccrualHeight:   p.LastAccrualHeight,
		AccRewardPerShare:   hex(p.AccRewardPerShare),
		TotalStaked:         hex(p.TotalStaked),
		MinDeposit:          hex(p.MinDeposit),
		UnstakeLockDuration: p.UnstakeLockDuration,
		CreatedHeight:       p.CreatedHeight,
	}
}

type Withdrawal struct {
	Amount       *math.HexOrDecimal256 `json:"amount"`
	UnlockHeight uint32                `json:"unlockHeight"`
}

type User struct {
	PoolID             uint64                `json:"poolId"`
	Address            rcc.Address           `json:"address"`
	Status             string                `json:"status"`
	StakedAmount       *math.HexOrDecimal256 `json:"stakedAmount"`
	RewardDebt         *math.HexOrDecimal256 `json:"rewardDebt"`
	Accrued            *math.HexOrDecimal256 `json:"accrued"`
	Claimed            *math.HexOrDecimal256 `json:"claimed"`
	PendingWithdrawals []*Withdrawal         `json:"pendingWithdrawals"`
	Requested          *math.HexOrDecimal256 `json:"requested"`
	Unlocked           *math.HexOrDecimal256 `json:"unlocked"`
}

func statusName(s position.Status) string {
	switch s {
	case position.StatusStaked:
		return "staked"
	case position.StatusPartiallyUnstaking:
		return "partiallyUnstaking"
	case position.StatusEmpty:
		return "empty"
	default:
		return "uninitialized"
	}
}

func ConvertUser(id uint64, addr rcc.Address, pos *position.Position, height uint32) *User {
	requested, unlocked := pos.WithdrawAmount(height)
	withdrawals := make([]*Withdrawal, 0, len(pos.PendingWithdrawals))
	for _, w := range pos.PendingWithdrawals {
		withdrawals = append(withdrawals, &Withdrawal{
			Amount:       hex(w.Amount),
			UnlockHeight: w.UnlockHeight,
		})
	}
	return &User{
		PoolID:             id,
		Address:            addr,
		Status:             statusName(pos.Status()),
		StakedAmount:       hex(pos.StakedAmount),
		RewardDebt:         hex(pos.RewardDebt),
		Accrued:            hex(pos.Accrued),
		Claimed:            hex(pos.Claimed),
		PendingWithdrawals: withdrawals,
		Requested:          hex(requested),
		Unlocked:           hex(unlocked),
	}
}

type Pending struct {
	PoolID  uint64                `json:"poolId"`
	Address rcc.Address           `json:"address"`
	Height  uint32                `json:"height"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}

type Schedule struct {
	Initialized     bool                  `json:"initialized"`
	Owner           rcc.Address           `json:"owner"`
	Paused          bool                  `json:"paused"`
	RewardToken     rcc.Address           `json:"rewardToken"`
	StartHeight     uint32                `json:"startHeight"`
	EndHeight       uint32                `json:"endHeight"`
	RewardPerHeight *math.HexOrDecimal256 `json:"rewardPerHeight"`
	PoolLength      uint64                `json:"poolLength"`
	TotalWeight     uint64                `json:"totalWeight"`
	Height          uint32                `json:"height"`
	SchemaVersion   uint32                `json:"schemaVersion"`
	LayoutHash      rcc.Bytes32           `json:"layoutHash"`
}

func ConvertSchedule(s *governor.Schedule) *Schedule {
	return &Schedule{
		RewardToken:     s.RewardToken,
		StartHeight:     s.StartHeight,
		EndHeight:       s.EndHeight,
		RewardPerHeight: hex(s.RewardPerHeight),
	}
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}
