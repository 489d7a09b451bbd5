// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/rcc"
)

type Status = uint8

const (
	StatusUninitialized      = Status(iota) // never touched
	StatusStaked                            // stake and no pending withdrawals
	StatusPartiallyUnstaking                // has pending withdrawals
	StatusEmpty                             // no stake, nothing pending
)

// Withdrawal is a pending unstake request.
type Withdrawal struct {
	Amount       *big.Int
	UnlockHeight uint32
}

// Position is a user's stake in one pool. New fields may only be appended with the `rlp:"optional"` tag.
type Position struct {
	StakedAmount       *big.Int
	RewardDebt         *big.Int // StakedAmount*acc/Scale at the last settlement
	Accrued            *big.Int // settled but unclaimed
	PendingWithdrawals []*Withdrawal
	Claimed            *big.Int // all-time claimed
}

func (p *Position) normalize() {
	for _, v := range []**big.Int{&p.StakedAmount, &p.RewardDebt, &p.Accrued, &p.Claimed} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
}

func (p *Position) IsEmpty() bool {
	p.normalize()
	return p.StakedAmount.Sign() == 0 &&
		p.RewardDebt.Sign() == 0 &&
		p.Accrued.Sign() == 0 &&
		p.Claimed.Sign() == 0 &&
		len(p.PendingWithdrawals) == 0
}

func (p *Position) Status() Status {
	p.normalize()
	switch {
	case p.IsEmpty():
		return StatusUninitialized
	case len(p.PendingWithdrawals) > 0:
		return StatusPartiallyUnstaking
	case p.StakedAmount.Sign() > 0:
		return StatusStaked
	default:
		return StatusEmpty
	}
}

func mulScaled(amount, acc *big.Int) (*big.Int, error) {
	v := new(big.Int).Mul(amount, acc)
	v.Quo(v, rcc.Scale)
	if v.BitLen() > 256 {
		return nil, reverts.ErrOverflow
	}
	return v, nil
}

// Pending returns the reward earned since the last settlement at accumulator acc.
func (p *Position) Pending(acc *big.Int) (*big.Int, error) {
	p.normalize()
	earned, err := mulScaled(p.StakedAmount, acc)
	if err != nil {
		return nil, err
	}
	earned.Sub(earned, p.RewardDebt)
	if earned.Sign() < 0 {
		// acc never decreases, so this means corrupted storage
		return nil, reverts.ErrOverflow
	}
	return earned, nil
}

// Claimable returns Accrued plus Pending.
func (p *Position) Claimable(acc *big.Int) (*big.Int, error) {
	pending, err := p.Pending(acc)
	if err != nil {
		return nil, err
	}
	return pending.Add(pending, p.Accrued), nil
}

// Settle moves pending reward into Accrued and resets the debt.
func (p *Position) Settle(acc *big.Int) error {
	pending, err := p.Pending(acc)
	if err != nil {
		return err
	}
	p.Accrued = new(big.Int).Add(p.Accrued, pending)
	return p.ResetDebt(acc)
}

// ResetDebt sets RewardDebt to StakedAmount*acc/Scale.
func (p *Position) ResetDebt(acc *big.Int) error {
	p.normalize()
	debt, err := mulScaled(p.StakedAmount, acc)
	if err != nil {
		return err
	}
	p.RewardDebt = debt
	return nil
}

// WithdrawAmount returns the total pending and the part unlocked at height.
func (p *Position) WithdrawAmount(height uint32) (requested, unlocked *big.Int) {
	requested, unlocked = new(big.Int), new(big.Int)
	for _, w := range p.PendingWithdrawals {
		requested.Add(requested, w.Amount)
		if w.UnlockHeight <= height {
			unlocked.Add(unlocked, w.Amount)
		}
	}
	return
}

// TakeUnlocked removes the entries unlocked at height and returns their sum.
func (p *Position) TakeUnlocked(height uint32) *big.Int {
	sum := new(big.Int)
	kept := p.PendingWithdrawals[:0]
	for _, w := range p.PendingWithdrawals {
		if w.UnlockHeight <= height {
			sum.Add(sum, w.Amount)
		} else {
			kept = append(kept, w)
		}
	}
	p.PendingWithdrawals = kept
	return sum
}
