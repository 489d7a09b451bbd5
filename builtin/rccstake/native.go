// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rccstake

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/rcc"
)

// ErrUnknownMethod is returned by Dispatch for input that matches no method.
var ErrUnknownMethod = errors.New("unknown method")

type nativeMethod func(c *RCCStake, args []any) ([]any, error)

var nativeMethods = make(map[abi.MethodID]nativeMethod)

func init() {
	defines := []struct {
		name string
		run  nativeMethod
	}{
		{"initialize", func(c *RCCStake, args []any) ([]any, error) {
			start, err := toUint32(args[1])
			if err != nil {
				return nil, err
			}
			end, err := toUint32(args[2])
			if err != nil {
				return nil, err
			}
			return nil, c.Initialize(toAddress(args[0]), start, end, args[3].(*big.Int), nil)
		}},
		{"addPool", func(c *RCCStake, args []any) ([]any, error) {
			weight, err := toUint64(args[1])
			if err != nil {
				return nil, err
			}
			lock, err := toUint32(args[3])
			if err != nil {
				return nil, err
			}
			id, err := c.AddPool(toAddress(args[0]), weight, args[2].(*big.Int), lock)
			return []any{u256(id)}, err
		}},
		{"setPoolWeight", func(c *RCCStake, args []any) ([]any, error) {
			id, weight, err := twoUint64(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return nil, c.SetPoolWeight(id, weight)
		}},
		{"updatePool", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			lock, err := toUint32(args[2])
			if err != nil {
				return nil, err
			}
			return nil, c.UpdatePool(id, args[1].(*big.Int), lock)
		}},
		{"syncPool", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			return nil, c.SyncPool(id)
		}},
		{"syncAllPools", func(c *RCCStake, _ []any) ([]any, error) {
			return nil, c.SyncAllPools()
		}},
		{"deposit", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			return nil, c.Deposit(id, args[1].(*big.Int))
		}},
		{"requestWithdraw", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			return nil, c.RequestWithdraw(id, args[1].(*big.Int))
		}},
		{"withdraw", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			amount, err := c.Withdraw(id)
			return []any{amount}, err
		}},
		{"claim", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			reward, err := c.Claim(id)
			return []any{reward}, err
		}},
		{"pause", func(c *RCCStake, _ []any) ([]any, error) {
			return nil, c.Pause()
		}},
		{"unpause", func(c *RCCStake, _ []any) ([]any, error) {
			return nil, c.Unpause()
		}},
		{"transferOwnership", func(c *RCCStake, args []any) ([]any, error) {
			return nil, c.TransferOwnership(toAddress(args[0]))
		}},
		{"setStartHeight", func(c *RCCStake, args []any) ([]any, error) {
			h, err := toUint32(args[0])
			if err != nil {
				return nil, err
			}
			return nil, c.SetStartHeight(h)
		}},
		{"setEndHeight", func(c *RCCStake, args []any) ([]any, error) {
			h, err := toUint32(args[0])
			if err != nil {
				return nil, err
			}
			return nil, c.SetEndHeight(h)
		}},
		{"setRewardPerHeight", func(c *RCCStake, args []any) ([]any, error) {
			return nil, c.SetRewardPerHeight(args[0].(*big.Int))
		}},
		{"upgrade", func(c *RCCStake, _ []any) ([]any, error) {
			return nil, c.Upgrade()
		}},
		{"pendingReward", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			reward, err := c.PendingReward(id, toAddress(args[1]))
			return []any{reward}, err
		}},
		{"withdrawAmount", func(c *RCCStake, args []any) ([]any, error) {
			id, err := toUint64(args[0])
			if err != nil {
				return nil, err
			}
			requested, unlocked, err := c.WithdrawAmount(id, toAddress(args[1]))
			return []any{requested, unlocked}, err
		}},
		{"poolLength", func(c *RCCStake, _ []any) ([]any, error) {
			n, err := c.PoolLength()
			return []any{u256(n)}, err
		}},
		{"totalWeight", func(c *RCCStake, _ []any) ([]any, error) {
			w, err := c.TotalWeight()
			return []any{u256(w)}, err
		}},
		{"owner", func(c *RCCStake, _ []any) ([]any, error) {
			owner, err := c.Owner()
			return []any{common.Address(owner)}, err
		}},
		{"paused", func(c *RCCStake, _ []any) ([]any, error) {
			paused, err := c.Paused()
			return []any{paused}, err
		}},
	}

	for _, def := range defines {
		method, found := ABI.MethodByName(def.name)
		if !found {
			panic("method not found: " + def.name)
		}
		nativeMethods[method.ID()] = def.run
	}
}

// Dispatch decodes abi encoded input, runs the method and encodes its output.
func (c *RCCStake) Dispatch(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, ErrUnknownMethod
	}
	var id abi.MethodID
	copy(id[:], input)
	method, found := ABI.MethodByID(id)
	if !found {
		return nil, ErrUnknownMethod
	}
	run, found := nativeMethods[id]
	if !found {
		return nil, ErrUnknownMethod
	}
	if c.env.Readonly() && !method.Const() {
		return nil, errors.Errorf("write protection: %s", method.Name())
	}
	args, err := method.DecodeInput(input)
	if err != nil {
		return nil, errors.WithMessage(err, "decode native input")
	}
	out, err := run(c, args)
	if err != nil {
		return nil, err
	}
	data, err := method.EncodeOutput(out...)
	if err != nil {
		return nil, errors.WithMessage(err, "encode native output")
	}
	return data, nil
}

func toAddress(v any) rcc.Address {
	return rcc.Address(v.(common.Address))
}

func toUint64(v any) (uint64, error) {
	b := v.(*big.Int)
	if !b.IsUint64() {
		return 0, reverts.ErrOverflow
	}
	return b.Uint64(), nil
}

func toUint32(v any) (uint32, error) {
	n, err := toUint64(v)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint32 {
		return 0, reverts.ErrOverflow
	}
	return uint32(n), nil
}

func twoUint64(a, b any) (uint64, uint64, error) {
	x, err := toUint64(a)
	if err != nil {
		return 0, 0, err
	}
	y, err := toUint64(b)
	return x, y, err
}
