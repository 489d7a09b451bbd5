// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/builtin/solidity"
	"github.com/rccstake/rccstake/rcc"
)

// Slot names owned by the pool registry, in layout order.
const (
	SlotPoolCount   = "pool-count"
	SlotPools       = "pools"
	SlotTotalWeight = "total-weight"
)

var Slots = governor.Layout{SlotPoolCount, SlotPools, SlotTotalWeight}

// Service is the append-only pool registry.
type Service struct {
	count       *solidity.Uint64
	pools       *solidity.Mapping[rcc.Bytes32, *Pool]
	totalWeight *solidity.Uint64
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		count:       solidity.NewUint64(sctx, solidity.NameToSlot(SlotPoolCount)),
		pools:       solidity.NewMapping[rcc.Bytes32, *Pool](sctx, solidity.NameToSlot(SlotPools)),
		totalWeight: solidity.NewUint64(sctx, solidity.NameToSlot(SlotTotalWeight)),
	}
}

func (s *Service) Count() (uint64, error) {
	return s.count.Get()
}

func (s *Service) TotalWeight() (uint64, error) {
	return s.totalWeight.Get()
}

// Add appends a pool and returns its id.
func (s *Service) Add(stakingToken rcc.Address, weight uint64, minDeposit *big.Int, lockDuration uint32, height uint32, sched *governor.Schedule) (uint64, error) {
	if weight == 0 {
		return 0, reverts.ErrInvalidWeight
	}
	if minDeposit == nil || minDeposit.Sign() < 0 {
		return 0, reverts.ErrBelowMinimum
	}
	total, err := s.totalWeight.Get()
	if err != nil {
		return 0, err
	}
	if total > math.MaxUint64-weight {
		return 0, reverts.ErrOverflow
	}
	id, err := s.count.Get()
	if err != nil {
		return 0, err
	}

	p := &Pool{
		StakingToken:        stakingToken,
		Weight:              weight,
		LastAccrualHeight:   max(height, sched.StartHeight),
		AccRewardPerShare:   new(big.Int),
		TotalStaked:         new(big.Int),
		MinDeposit:          new(big.Int).Set(minDeposit),
		UnstakeLockDuration: lockDuration,
		CreatedHeight:       height,
	}
	if err := s.pools.Set(rcc.Uint64ToBytes32(id), p); err != nil {
		return 0, errors.Wrap(err, "failed to set pool")
	}
	s.count.Set(id + 1)
	s.totalWeight.Set(total + weight)
	return id, nil
}

// Get returns the pool with id, or ErrPoolNotFound.
func (s *Service) Get(id uint64) (*Pool, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	if id >= count {
		return nil, reverts.ErrPoolNotFound
	}
	p, err := s.pools.Get(rcc.Uint64ToBytes32(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// Set stores an existing pool.
func (s *Service) Set(id uint64, p *Pool) error {
	if err := s.pools.Set(rcc.Uint64ToBytes32(id), p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

// SetWeight updates the pool weight and returns the new total weight.
// Callers must sync every pool beforehand.
func (s *Service) SetWeight(id uint64, weight uint64) (uint64, error) {
	p, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	total, err := s.totalWeight.Get()
	if err != nil {
		return 0, err
	}
	total -= p.Weight
	if total > math.MaxUint64-weight {
		return 0, reverts.ErrOverflow
	}
	total += weight

	p.Weight = weight
	if err := s.Set(id, p); err != nil {
		return 0, err
	}
	s.totalWeight.Set(total)
	return total, nil
}

// SetInfo updates the deposit minimum and unstake lock duration.
func (s *Service) SetInfo(id uint64, minDeposit *big.Int, lockDuration uint32) (*Pool, error) {
	if minDeposit == nil || minDeposit.Sign() < 0 {
		return nil, reverts.ErrBelowMinimum
	}
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	p.MinDeposit = new(big.Int).Set(minDeposit)
	p.UnstakeLockDuration = lockDuration
	return p, s.Set(id, p)
}

// Sync accrues the pool up to height and stores it.
func (s *Service) Sync(id uint64, sched *governor.Schedule, height uint32) (*Pool, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	total, err := s.totalWeight.Get()
	if err != nil {
		return nil, err
	}
	next, err := Accrue(p, sched, total, height)
	if err != nil {
		return nil, err
	}
	if err := s.Set(id, next); err != nil {
		return nil, err
	}
	return next, nil
}

// SyncAll syncs every pool in id order and calls fn for each.
func (s *Service) SyncAll(sched *governor.Schedule, height uint32, fn func(id uint64, p *Pool) error) error {
	count, err := s.count.Get()
	if err != nil {
		return err
	}
	for id := range count {
		p, err := s.Sync(id, sched, height)
		if err != nil {
			return err
		}
		if fn != nil {
			if err := fn(id, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pending projects the accumulator of pool id at height.
func (s *Service) Pending(id uint64, sched *governor.Schedule, height uint32) (*big.Int, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	total, err := s.totalWeight.Get()
	if err != nil {
		return nil, err
	}
	return PendingAt(p, sched, total, height)
}
