// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package abi wraps the go-ethereum ABI codec for the built-in contracts.
package abi

import (
	"bytes"
	"sort"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/rcc"
)

// ABI holds information about methods and events of contract.
type ABI struct {
	nameToMethod map[string]*Method
	nameToEvent  map[string]*Event
	methods      map[MethodID]*Method
	events       map[rcc.Bytes32]*Event
}

// New create an ABI instance.
func New(data []byte) (*ABI, error) {
	parsed, err := ethabi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parse abi")
	}

	abi := &ABI{
		nameToMethod: make(map[string]*Method),
		nameToEvent:  make(map[string]*Event),
		methods:      make(map[MethodID]*Method),
		events:       make(map[rcc.Bytes32]*Event),
	}
	for name := range parsed.Methods {
		ethMethod := parsed.Methods[name]
		method := newMethod(&ethMethod)
		abi.methods[method.id] = method
		abi.nameToMethod[name] = method
	}
	for name := range parsed.Events {
		ethEvent := parsed.Events[name]
		event := newEvent(&ethEvent)
		abi.events[event.id] = event
		abi.nameToEvent[name] = event
	}
	return abi, nil
}

// MustParse is like New but panics on error.
func MustParse(data []byte) *ABI {
	abi, err := New(data)
	if err != nil {
		panic(err)
	}
	return abi
}

// MethodByName find method for the given method name.
func (a *ABI) MethodByName(name string) (*Method, bool) {
	m, found := a.nameToMethod[name]
	return m, found
}

// MethodByID returns method for given method id.
func (a *ABI) MethodByID(id MethodID) (*Method, bool) {
	m, found := a.methods[id]
	return m, found
}

// MethodNames returns the names of all methods, sorted.
func (a *ABI) MethodNames() []string {
	names := make([]string, 0, len(a.nameToMethod))
	for name := range a.nameToMethod {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EventByName find event for the given event name.
func (a *ABI) EventByName(name string) (*Event, bool) {
	e, found := a.nameToEvent[name]
	return e, found
}

// EventByID returns event for given event id.
func (a *ABI) EventByID(id rcc.Bytes32) (*Event, bool) {
	e, found := a.events[id]
	return e, found
}

// UnpackRevert resolves the abi-encoded revert reason.
func UnpackRevert(data []byte) (string, error) {
	return ethabi.UnpackRevert(data)
}

// PackRevert encodes reason as the standard Error(string) revert payload.
func PackRevert(reason string) []byte {
	strType, _ := ethabi.NewType("string", "", nil)
	data, err := ethabi.Arguments{{Type: strType}}.Pack(reason)
	if err != nil {
		// a string argument always packs
		panic(err)
	}
	return append(append([]byte(nil), revertSelector...), data...)
}

// keccak256("Error(string)")[:4]
var revertSelector = rcc.Keccak256([]byte("Error(string)")).Bytes()[:4]
