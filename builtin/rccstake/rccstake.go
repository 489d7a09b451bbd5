// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rccstake

import (
	"math/big"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/builtin/gen"
	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/builtin/rccstake/pool"
	"github.com/rccstake/rccstake/builtin/rccstake/position"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/builtin/solidity"
	"github.com/rccstake/rccstake/log"
	"github.com/rccstake/rccstake/metrics"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/xenv"
)

var (
	logger = log.WithContext("pkg", "rccstake")

	ABI = abi.MustParse(gen.MustABI("RCCStake"))

	// Layout is the storage layout of the current schema version.
	Layout = concat(governor.Slots, pool.Slots, position.Slots)

	// Current is the code version built into this binary.
	Current = Code{Version: rcc.SchemaVersion, Layout: Layout}

	metricCalls       = metrics.LazyLoadCounterVec("rccstake_calls_count", []string{"method", "status"})
	metricPools       = metrics.LazyLoadGauge("rccstake_pools_count")
	metricTotalWeight = metrics.LazyLoadGauge("rccstake_total_weight")
)

func SetLogger(l log.Logger) {
	logger = l
}

func concat(layouts ...governor.Layout) governor.Layout {
	var out governor.Layout
	for _, l := range layouts {
		out = append(out, l...)
	}
	return out
}

// BalanceService moves fungible tokens on behalf of the contract.
type BalanceService interface {
	// TransferIn pulls amount of token from the user into the contract.
	TransferIn(token, from rcc.Address, amount *big.Int) error
	// TransferOut pays amount of token from the contract to the user.
	TransferOut(token, to rcc.Address, amount *big.Int) error
}

// Code identifies a contract code version and the storage layout it expects.
type Code struct {
	Version uint32
	Layout  governor.Layout
}

// RCCStake implements the staking contract. An instance serves calls made within one environment.
type RCCStake struct {
	addr     rcc.Address
	env      *xenv.Environment
	balances BalanceService
	code     Code

	governor  *governor.Service
	pools     *pool.Service
	positions *position.Service

	entered bool
}

// New binds the contract to env running the Current code.
func New(addr rcc.Address, env *xenv.Environment, balances BalanceService) (*RCCStake, error) {
	return NewWithCode(addr, env, balances, Current)
}

// NewWithCode binds the contract to env running code. It fails if the stored schema is newer than code.
func NewWithCode(addr rcc.Address, env *xenv.Environment, balances BalanceService, code Code) (*RCCStake, error) {
	sctx := solidity.NewContext(addr, env.State())
	c := &RCCStake{
		addr:      addr,
		env:       env,
		balances:  balances,
		code:      code,
		governor:  governor.New(sctx),
		pools:     pool.New(sctx),
		positions: position.New(sctx),
	}
	if err := c.governor.CheckVersion(code.Version); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *RCCStake) Address() rcc.Address { return c.addr }

func (c *RCCStake) height() uint32 {
	return c.env.BlockContext().Number
}

// call runs fn atomically: on error every storage write and event made by fn is dropped.
func (c *RCCStake) call(method string, fn func() error) error {
	if c.entered {
		metricCalls().AddWithLabel(1, map[string]string{"method": method, "status": "reentrant"})
		return reverts.ErrReentrantCall
	}
	c.entered = true
	defer func() { c.entered = false }()

	logger.Debug("call", "method", method, "caller", c.env.Caller(), "height", c.height())

	st := c.env.State()
	revision := st.NewCheckpoint()
	events := c.env.EventCheckpoint()

	err := fn()
	status := "success"
	if err != nil {
		st.RevertTo(revision)
		c.env.RevertEvents(events)

		if reverts.IsRevertErr(err) {
			status = "reverted"
			logger.Debug("call reverted", "method", method, "reason", err)
		} else {
			status = "failed"
			logger.Warn("call failed", "method", method, "err", err)
		}
	}
	metricCalls().AddWithLabel(1, map[string]string{"method": method, "status": status})
	return err
}

// requireOwner checks initialization then ownership.
func (c *RCCStake) requireOwner() error {
	if err := c.governor.RequireInitialized(); err != nil {
		return err
	}
	return c.governor.RequireOwner(c.env.Caller())
}

func (c *RCCStake) emit(name string, topics []rcc.Bytes32, args ...any) error {
	ev, ok := ABI.EventByName(name)
	if !ok {
		panic("rccstake: event not found: " + name)
	}
	return c.env.Log(ev, c.addr, topics, args...)
}

func poolTopic(id uint64) rcc.Bytes32 {
	return rcc.Uint64ToBytes32(id)
}

func addressTopic(addr rcc.Address) rcc.Bytes32 {
	return rcc.BytesToBytes32(addr.Bytes())
}

func u256(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// syncAll brings every pool to the current height. Required before any change
// to the total weight or the schedule.
func (c *RCCStake) syncAll(sched *governor.Schedule) error {
	return c.pools.SyncAll(sched, c.height(), nil)
}
