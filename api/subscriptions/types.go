// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/builtin/rccstake"
	"github.com/rccstake/rccstake/builtin/token"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/tx"
)

// EventMessage is a decoded contract event pushed to subscribers.
type EventMessage struct {
	Seq     uint64         `json:"seq"`
	Height  uint32         `json:"height"`
	Caller  rcc.Address    `json:"caller"`
	Method  string         `json:"method"`
	Address rcc.Address    `json:"address"`
	Name    string         `json:"name"`
	Topics  []rcc.Bytes32  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
	Args    map[string]any `json:"args,omitempty"`
}

// EventFilter selects events by emitter, name and pool. Zero fields match anything.
type EventFilter struct {
	Address *rcc.Address
	Name    string
	PoolID  *uint64
}

var abis = []*abi.ABI{rccstake.ABI, token.ABI}

func lookupEvent(id rcc.Bytes32) (*abi.Event, bool) {
	for _, a := range abis {
		if ev, ok := a.EventByID(id); ok {
			return ev, true
		}
	}
	return nil, false
}

// NewEventMessage decodes ev. Events unknown to the contract ABIs are passed through undecoded.
func NewEventMessage(r *tx.Receipt, ev *tx.Event) (*EventMessage, error) {
	msg := &EventMessage{
		Seq:     r.Seq,
		Height:  r.Height,
		Caller:  r.Caller,
		Method:  r.Method,
		Address: ev.Address,
		Topics:  ev.Topics,
		Data:    ev.Data,
	}
	if len(ev.Topics) == 0 {
		return msg, nil
	}
	def, ok := lookupEvent(ev.Topics[0])
	if !ok {
		return msg, nil
	}
	args, err := def.DecodeMap(ev.Topics, ev.Data)
	if err != nil {
		return nil, err
	}
	msg.Name = def.Name()
	msg.Args = args
	return msg, nil
}

func (f *EventFilter) match(msg *EventMessage) bool {
	if f.Address != nil && *f.Address != msg.Address {
		return false
	}
	if f.Name != "" && f.Name != msg.Name {
		return false
	}
	if f.PoolID != nil {
		id, ok := msg.Args["poolId"].(*big.Int)
		if !ok || !id.IsUint64() || id.Uint64() != *f.PoolID {
			return false
		}
	}
	return true
}
