// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/kv"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/stackedmap"
)

// Stage holds the storage changes of a state, ready to be committed.
type Stage struct {
	state   *State
	changes map[storageKey]rlp.RawValue
}

// Stage collects the latest value of every slot written since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		changes[k.(storageKey)] = v.(rlp.RawValue)
		return true
	})
	return &Stage{state: s, changes: changes}
}

// Len returns the number of changed slots.
func (st *Stage) Len() int {
	return len(st.changes)
}

// Hash returns a digest of the staged changes, in slot order.
func (st *Stage) Hash() rcc.Bytes32 {
	keys := make([]storageKey, 0, len(st.changes))
	for k := range st.changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i].Bytes()) < string(keys[j].Bytes())
	})
	parts := make([][]byte, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, k.Bytes(), st.changes[k])
	}
	return rcc.Blake2b(parts...)
}

// Commit writes all staged changes into the store in one bulk, then resets
// the journal of the state. Each extra writer adds its own records to the same
// bulk, unprefixed.
func (st *Stage) Commit(extra ...func(kv.Putter) error) error {
	s := st.state
	bulk := s.raw.Bulk()
	putter := storageBucket.NewPutter(bulk)
	for k, v := range st.changes {
		var err error
		if len(v) == 0 {
			err = putter.Delete(k.Bytes())
		} else {
			err = putter.Put(k.Bytes(), v)
		}
		if err != nil {
			return errors.Wrap(err, "stage storage change")
		}
	}
	for _, fn := range extra {
		if err := fn(bulk); err != nil {
			return errors.Wrap(err, "stage extra records")
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "commit storage changes")
	}

	for k, v := range st.changes {
		s.cache.Add(k, v)
	}
	s.sm = stackedmap.New(s.cacheGetter)
	return nil
}
