// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/builtin/solidity"
	"github.com/rccstake/rccstake/rcc"
)

// Slot names owned by the governor, in layout order.
const (
	SlotInitialized     = "initialized"
	SlotPaused          = "paused"
	SlotOwner           = "owner"
	SlotRewardToken     = "reward-token"
	SlotStartHeight     = "start-height"
	SlotEndHeight       = "end-height"
	SlotRewardPerHeight = "reward-per-height"
	SlotSchemaVersion   = "schema-version"
	SlotLayout          = "layout"
	SlotLayoutHash      = "layout-hash"
)

// Slots lists the governor slots in layout order.
var Slots = Layout{
	SlotInitialized,
	SlotPaused,
	SlotOwner,
	SlotRewardToken,
	SlotStartHeight,
	SlotEndHeight,
	SlotRewardPerHeight,
	SlotSchemaVersion,
	SlotLayout,
	SlotLayoutHash,
}

// Schedule is the global reward schedule.
type Schedule struct {
	RewardToken     rcc.Address
	StartHeight     uint32
	EndHeight       uint32
	RewardPerHeight *big.Int
}

// Validate checks StartHeight < EndHeight.
func (s *Schedule) Validate() error {
	if s.StartHeight >= s.EndHeight {
		return reverts.ErrInvalidSchedule
	}
	if s.RewardPerHeight == nil || s.RewardPerHeight.Sign() < 0 {
		return reverts.ErrInvalidSchedule
	}
	return nil
}

// Service manages the system state: initialization, pause, ownership, schedule and schema.
type Service struct {
	sctx *solidity.Context

	initialized     *solidity.Bool
	paused          *solidity.Bool
	owner           *solidity.Address
	rewardToken     *solidity.Address
	startHeight     *solidity.Uint64
	endHeight       *solidity.Uint64
	rewardPerHeight *solidity.Uint256
	schemaVersion   *solidity.Uint64
	layoutHash      *solidity.Bytes32
	layoutSlot      rcc.Bytes32
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		sctx:            sctx,
		initialized:     solidity.NewBool(sctx, solidity.NameToSlot(SlotInitialized)),
		paused:          solidity.NewBool(sctx, solidity.NameToSlot(SlotPaused)),
		owner:           solidity.NewAddress(sctx, solidity.NameToSlot(SlotOwner)),
		rewardToken:     solidity.NewAddress(sctx, solidity.NameToSlot(SlotRewardToken)),
		startHeight:     solidity.NewUint64(sctx, solidity.NameToSlot(SlotStartHeight)),
		endHeight:       solidity.NewUint64(sctx, solidity.NameToSlot(SlotEndHeight)),
		rewardPerHeight: solidity.NewUint256(sctx, solidity.NameToSlot(SlotRewardPerHeight)),
		schemaVersion:   solidity.NewUint64(sctx, solidity.NameToSlot(SlotSchemaVersion)),
		layoutHash:      solidity.NewBytes32(sctx, solidity.NameToSlot(SlotLayoutHash)),
		layoutSlot:      solidity.NameToSlot(SlotLayout),
	}
}

func (s *Service) IsInitialized() (bool, error) {
	return s.initialized.Get()
}

// RequireInitialized returns ErrNotInitialized before Initialize has run.
func (s *Service) RequireInitialized() error {
	ok, err := s.initialized.Get()
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotInitialized
	}
	return nil
}

// Initialize writes the initial system state. It can succeed only once.
func (s *Service) Initialize(sched *Schedule, owner rcc.Address, layout Layout, version uint32) error {
	ok, err := s.initialized.Get()
	if err != nil {
		return err
	}
	if ok {
		return reverts.ErrAlreadyInitialized
	}
	if owner.IsZero() {
		return reverts.ErrInvalidAddress
	}
	if err := s.SetSchedule(sched); err != nil {
		return err
	}
	s.owner.Set(&owner)
	if err := s.setLayout(layout); err != nil {
		return err
	}
	s.schemaVersion.Set(uint64(version))
	s.initialized.Set(true)
	return nil
}

func (s *Service) Owner() (rcc.Address, error) {
	return s.owner.Get()
}

func (s *Service) SetOwner(owner rcc.Address) error {
	if owner.IsZero() {
		return reverts.ErrInvalidAddress
	}
	s.owner.Set(&owner)
	return nil
}

// RequireOwner returns ErrUnauthorized unless caller is the owner.
func (s *Service) RequireOwner(caller rcc.Address) error {
	owner, err := s.owner.Get()
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.ErrUnauthorized
	}
	return nil
}

func (s *Service) IsPaused() (bool, error) {
	return s.paused.Get()
}

// RequireNotPaused returns ErrPaused while paused.
func (s *Service) RequireNotPaused() error {
	paused, err := s.paused.Get()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrPaused
	}
	return nil
}

// SetPaused flips the pause flag, failing if it already has the requested value.
func (s *Service) SetPaused(paused bool) error {
	current, err := s.paused.Get()
	if err != nil {
		return err
	}
	if current == paused {
		if paused {
			return reverts.ErrAlreadyPaused
		}
		return reverts.ErrNotPaused
	}
	s.paused.Set(paused)
	return nil
}

func (s *Service) Schedule() (*Schedule, error) {
	token, err := s.rewardToken.Get()
	if err != nil {
		return nil, err
	}
	start, err := s.startHeight.Get()
	if err != nil {
		return nil, err
	}
	end, err := s.endHeight.Get()
	if err != nil {
		return nil, err
	}
	rate, err := s.rewardPerHeight.Get()
	if err != nil {
		return nil, err
	}
	return &Schedule{
		RewardToken:     token,
		StartHeight:     uint32(start),
		EndHeight:       uint32(end),
		RewardPerHeight: rate,
	}, nil
}

func (s *Service) SetSchedule(sched *Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	if sched.RewardPerHeight.BitLen() > 256 {
		return reverts.ErrOverflow
	}
	s.rewardToken.Set(&sched.RewardToken)
	s.startHeight.Set(uint64(sched.StartHeight))
	s.endHeight.Set(uint64(sched.EndHeight))
	s.rewardPerHeight.Set(sched.RewardPerHeight)
	return nil
}

func (s *Service) SchemaVersion() (uint32, error) {
	v, err := s.schemaVersion.Get()
	return uint32(v), err
}

// CheckVersion fails if the stored schema is newer than the running code.
func (s *Service) CheckVersion(codeVersion uint32) error {
	v, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if v > codeVersion {
		return reverts.ErrVersionTooNew
	}
	return nil
}

func (s *Service) Layout() (Layout, error) {
	var layout Layout
	err := s.sctx.State().DecodeStorage(s.sctx.Address(), s.layoutSlot, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &layout)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get layout")
	}
	return layout, nil
}

func (s *Service) LayoutHash() (rcc.Bytes32, error) {
	return s.layoutHash.Get()
}

func (s *Service) setLayout(layout Layout) error {
	err := s.sctx.State().EncodeStorage(s.sctx.Address(), s.layoutSlot, func() ([]byte, error) {
		return rlp.EncodeToBytes(layout)
	})
	if err != nil {
		return errors.Wrap(err, "failed to set layout")
	}
	s.layoutHash.Set(layout.Hash())
	return nil
}

// Upgrade records a new layout and schema version. The new layout must extend
// the stored one and the version must grow.
func (s *Service) Upgrade(layout Layout, version uint32) error {
	old, err := s.Layout()
	if err != nil {
		return err
	}
	if !layout.Extends(old) {
		return reverts.ErrLayoutMismatch
	}
	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if version <= current {
		return reverts.ErrLayoutMismatch
	}
	if err := s.setLayout(layout); err != nil {
		return err
	}
	s.schemaVersion.Set(uint64(version))
	return nil
}
