// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rccstake/rccstake/lvldb"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/state"
)

func newContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(rcc.BytesToAddress([]byte("contract")), state.New(db))
}

func TestUint256(t *testing.T) {
	ctx := newContext(t)
	u := NewUint256(ctx, NameToSlot("total"))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(30)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(70), v)

	assert.ErrorIs(t, u.Sub(big.NewInt(71)), errNegative)
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(70), v)

	u64 := NewUint64(ctx, NameToSlot("count"))
	u64.Set(12)
	n, err := u64.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(12), n)
}

func TestAddressAndBool(t *testing.T) {
	ctx := newContext(t)

	a := NewAddress(ctx, NameToSlot("owner"))
	got, err := a.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	owner := rcc.BytesToAddress([]byte("owner"))
	a.Set(&owner)
	got, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	a.Set(nil)
	got, err = a.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	b := NewBool(ctx, NameToSlot("paused"))
	flag, err := b.Get()
	require.NoError(t, err)
	assert.False(t, flag)
	b.Set(true)
	flag, err = b.Get()
	require.NoError(t, err)
	assert.True(t, flag)

	h := NewBytes32(ctx, NameToSlot("hash"))
	h.Set(rcc.Blake2b([]byte("x")))
	hv, err := h.Get()
	require.NoError(t, err)
	assert.Equal(t, rcc.Blake2b([]byte("x")), hv)
}

type record struct {
	Amount *big.Int
	Height uint32
}

func TestMapping(t *testing.T) {
	ctx := newContext(t)
	m := NewMapping[*big.Int, *record](ctx, NameToSlot("records"))

	empty, err := m.Get(big.NewInt(0))
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Nil(t, empty.Amount)

	require.NoError(t, m.Set(big.NewInt(0), &record{Amount: big.NewInt(5), Height: 1}))
	require.NoError(t, m.Set(big.NewInt(1), &record{Amount: big.NewInt(6), Height: 2}))

	r0, err := m.Get(big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), r0.Amount)
	r1, err := m.Get(big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), r1.Height)

	m.Delete(big.NewInt(0))
	r0, err = m.Get(big.NewInt(0))
	require.NoError(t, err)
	assert.Nil(t, r0.Amount)

	// same key under another base slot is a different slot
	other := NewMapping[*big.Int, *record](ctx, NameToSlot("others"))
	r1, err = other.Get(big.NewInt(1))
	require.NoError(t, err)
	assert.Nil(t, r1.Amount)

	values := NewMapping[rcc.Address, *big.Int](ctx, NameToSlot("balances"))
	alice := rcc.BytesToAddress([]byte("alice"))
	require.NoError(t, values.Set(alice, big.NewInt(9)))
	bal, err := values.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9), bal)
}
