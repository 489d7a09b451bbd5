// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/solidity"
	"github.com/rccstake/rccstake/rcc"
)

const SlotPositions = "positions"

var Slots = governor.Layout{SlotPositions}

// Service stores staker positions keyed by (pool id, user).
type Service struct {
	positions *solidity.Mapping[rcc.Bytes32, *Position]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		positions: solidity.NewMapping[rcc.Bytes32, *Position](sctx, solidity.NameToSlot(SlotPositions)),
	}
}

func key(poolID uint64, user rcc.Address) rcc.Bytes32 {
	return rcc.Blake2b(rcc.Uint64ToBytes32(poolID).Bytes(), user.Bytes())
}

// Get returns the position, a zero position if the user never staked.
func (s *Service) Get(poolID uint64, user rcc.Address) (*Position, error) {
	p, err := s.positions.Get(key(poolID, user))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	p.normalize()
	return p, nil
}

func (s *Service) Set(poolID uint64, user rcc.Address, p *Position) error {
	if p.IsEmpty() {
		s.positions.Delete(key(poolID, user))
		return nil
	}
	if err := s.positions.Set(key(poolID, user), p); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}
