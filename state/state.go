// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"

	"github.com/rccstake/rccstake/kv"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/stackedmap"
)

const (
	storageBucket = kv.Bucket("s")

	defaultCacheSize = 4096
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr rcc.Address
	key  rcc.Bytes32
}

func (k storageKey) Bytes() []byte {
	return append(append(make([]byte, 0, rcc.AddressLength+32), k.addr[:]...), k.key[:]...)
}

// State manages contract storage.
type State struct {
	raw   kv.Store
	store kv.Store
	cache *lru.Cache // committed raw values, keyed by storageKey
	sm    *stackedmap.StackedMap
}

// New create state object over the given store.
func New(store kv.Store) *State {
	cache, _ := lru.New(defaultCacheSize)
	s := &State{
		raw:   store,
		store: storageBucket.NewStore(store),
		cache: cache,
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return s
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (any, bool, error) {
	k, ok := key.(storageKey)
	if !ok {
		panic(fmt.Errorf("unexpected key type %+v", key))
	}
	if v, ok := s.cache.Get(k); ok {
		metricCacheHits().Add(1)
		return v.(rlp.RawValue), true, nil
	}
	metricCacheMisses().Add(1)

	raw, err := s.store.Get(k.Bytes())
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, false, err
		}
		raw = nil
	}
	s.cache.Add(k, rlp.RawValue(raw))
	return rlp.RawValue(raw), true, nil
}

// GetRawStorage returns the raw rlp encoded storage value at the given slot.
// An empty value is returned for a slot never written.
func (s *State) GetRawStorage(addr rcc.Address, key rcc.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage set storage value in raw form. An empty value clears the slot.
func (s *State) SetRawStorage(addr rcc.Address, key rcc.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr rcc.Address, key rcc.Bytes32) (rcc.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return rcc.Bytes32{}, err
	}
	v, err := decodeBytes32(raw)
	if err != nil {
		return rcc.Bytes32{}, &Error{err}
	}
	return v, nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr rcc.Address, key, value rcc.Bytes32) {
	s.SetRawStorage(addr, key, encodeBytes32(value))
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be passed through.
func (s *State) DecodeStorage(addr rcc.Address, key rcc.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	return dec(raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be passed through.
func (s *State) EncodeStorage(addr rcc.Address, key rcc.Bytes32, enc func() ([]byte, error)) error {
	data, err := enc()
	if err != nil {
		return err
	}
	s.SetRawStorage(addr, key, data)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 || revision > s.sm.Depth() {
		panic(fmt.Errorf("invalid revision %d", revision))
	}
	s.sm.PopTo(revision)
}
