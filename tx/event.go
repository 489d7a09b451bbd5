// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/rccstake/rccstake/rcc"
)

// Event represents a contract event log.
type Event struct {
	// address of the contract that emitted the event
	Address rcc.Address
	// list of topics provided by the contract.
	Topics []rcc.Bytes32
	// supplied by the contract, usually ABI-encoded
	Data []byte
}

// Events slice of event logs.
type Events []*Event

// Filter returns events matching the given address and, when not zero, the first topic.
func (es Events) Filter(addr rcc.Address, topic0 rcc.Bytes32) Events {
	var out Events
	for _, e := range es {
		if e.Address != addr {
			continue
		}
		if !topic0.IsZero() && (len(e.Topics) == 0 || e.Topics[0] != topic0) {
			continue
		}
		out = append(out, e)
	}
	return out
}
