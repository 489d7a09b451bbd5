// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv provides the execution environment of a single contract call.
package xenv

import (
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/state"
	"github.com/rccstake/rccstake/tx"
)

// ErrWriteProtection is returned when a read-only environment attempts to emit events.
var ErrWriteProtection = errors.New("write protection")

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// Environment an env to execute native method.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	caller   rcc.Address
	readonly bool
	events   tx.Events
}

// New create a new env.
func New(state *state.State, blockCtx *BlockContext, caller rcc.Address) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		caller:   caller,
	}
}

// NewReadonly creates an env that rejects event emission.
func NewReadonly(state *state.State, blockCtx *BlockContext) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		readonly: true,
	}
}

func (env *Environment) State() *state.State         { return env.state }
func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }
func (env *Environment) Caller() rcc.Address         { return env.caller }
func (env *Environment) Readonly() bool              { return env.readonly }

// Log emits an event. topics exclude the event id, which is prepended.
func (env *Environment) Log(ev *abi.Event, address rcc.Address, topics []rcc.Bytes32, args ...any) error {
	if env.readonly {
		return ErrWriteProtection
	}
	data, err := ev.Encode(args...)
	if err != nil {
		return errors.WithMessage(err, "encode native event")
	}
	all := make([]rcc.Bytes32, 0, len(topics)+1)
	all = append(all, ev.ID())
	all = append(all, topics...)
	env.events = append(env.events, &tx.Event{
		Address: address,
		Topics:  all,
		Data:    data,
	})
	return nil
}

// Events returns events emitted so far.
func (env *Environment) Events() tx.Events {
	return env.events
}

// EventCheckpoint returns a revision to pass to RevertEvents.
func (env *Environment) EventCheckpoint() int {
	return len(env.events)
}

// RevertEvents drops events emitted after the checkpoint.
func (env *Environment) RevertEvents(checkpoint int) {
	if checkpoint < len(env.events) {
		env.events = env.events[:checkpoint]
	}
}
