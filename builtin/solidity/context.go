// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/state"
)

// Context binds storage wrappers to the storage of one contract address.
type Context struct {
	address rcc.Address
	state   *state.State
}

func NewContext(address rcc.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) Address() rcc.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// NameToSlot derives a storage slot from a human readable name.
func NameToSlot(name string) rcc.Bytes32 {
	return rcc.BytesToBytes32([]byte(name))
}
