// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package abi

import (
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/rcc"
)

// Event see abi.Event in go-ethereum.
type Event struct {
	id                 rcc.Bytes32
	event              *ethabi.Event
	indexed            ethabi.Arguments
	argsWithoutIndexed ethabi.Arguments
}

func newEvent(event *ethabi.Event) *Event {
	var indexed ethabi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return &Event{
		rcc.Bytes32(event.ID),
		event,
		indexed,
		event.Inputs.NonIndexed(),
	}
}

// ID returns event id.
func (e *Event) ID() rcc.Bytes32 {
	return e.id
}

// Name returns event name.
func (e *Event) Name() string {
	return e.event.Name
}

// Encode encodes args to data.
func (e *Event) Encode(args ...any) ([]byte, error) {
	return e.argsWithoutIndexed.Pack(args...)
}

// Decode decodes event data into v.
func (e *Event) Decode(data []byte, v any) error {
	vals, err := e.argsWithoutIndexed.Unpack(data)
	if err != nil {
		return err
	}
	return e.argsWithoutIndexed.Copy(v, vals)
}

// DecodeMap decodes topics and data into a name to value map.
// topics[0] is the event id.
func (e *Event) DecodeMap(topics []rcc.Bytes32, data []byte) (map[string]any, error) {
	if len(topics) != len(e.indexed)+1 || topics[0] != e.id {
		return nil, errors.New("topics mismatch")
	}
	out := make(map[string]any)
	if len(e.argsWithoutIndexed) > 0 {
		if err := e.argsWithoutIndexed.UnpackIntoMap(out, data); err != nil {
			return nil, err
		}
	}
	hashes := make([]common.Hash, 0, len(topics)-1)
	for _, t := range topics[1:] {
		hashes = append(hashes, common.Hash(t))
	}
	if err := ethabi.ParseTopicsIntoMap(out, e.indexed, hashes); err != nil {
		return nil, err
	}
	return out, nil
}
