// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rccstake/rccstake/lvldb"
	"github.com/rccstake/rccstake/rcc"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestStateReadWrite(t *testing.T) {
	st, _ := newTestState(t)

	addr := rcc.BytesToAddress([]byte("account1"))
	key := rcc.BytesToBytes32([]byte("key"))

	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	value := rcc.BytesToBytes32([]byte("value"))
	st.SetStorage(addr, key, value)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, value, v)

	// other contracts don't see the slot
	other := rcc.BytesToAddress([]byte("account2"))
	v, err = st.GetStorage(other, key)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestStateRevert(t *testing.T) {
	st, _ := newTestState(t)

	addr := rcc.BytesToAddress([]byte("account1"))
	key := rcc.BytesToBytes32([]byte("key"))

	st.SetStorage(addr, key, rcc.Uint64ToBytes32(1))

	cp := st.NewCheckpoint()
	st.SetStorage(addr, key, rcc.Uint64ToBytes32(2))
	inner := st.NewCheckpoint()
	st.SetStorage(addr, key, rcc.Uint64ToBytes32(3))

	st.RevertTo(inner)
	v, err := st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, rcc.Uint64ToBytes32(2), v)

	st.RevertTo(cp)
	v, err = st.GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, rcc.Uint64ToBytes32(1), v)

	assert.Panics(t, func() { st.RevertTo(0) })
	assert.Panics(t, func() { st.RevertTo(100) })
}

func TestStateCommit(t *testing.T) {
	st, db := newTestState(t)

	addr := rcc.BytesToAddress([]byte("account1"))
	k1 := rcc.BytesToBytes32([]byte("k1"))
	k2 := rcc.BytesToBytes32([]byte("k2"))

	st.SetStorage(addr, k1, rcc.Uint64ToBytes32(10))
	st.SetStorage(addr, k2, rcc.Uint64ToBytes32(20))
	require.NoError(t, st.EncodeStorage(addr, k2, func() ([]byte, error) {
		return rlp.EncodeToBytes([]uint64{1, 2, 3})
	}))

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	hash := stage.Hash()
	assert.Equal(t, hash, st.Stage().Hash())
	require.NoError(t, stage.Commit())

	// a fresh state over the same store sees the committed values
	reopened := New(db)
	v, err := reopened.GetStorage(addr, k1)
	require.NoError(t, err)
	assert.Equal(t, rcc.Uint64ToBytes32(10), v)

	var list []uint64
	require.NoError(t, reopened.DecodeStorage(addr, k2, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &list)
	}))
	assert.Equal(t, []uint64{1, 2, 3}, list)

	// clearing a slot deletes it from the store
	reopened.SetStorage(addr, k1, rcc.Bytes32{})
	require.NoError(t, reopened.Stage().Commit())
	raw, err := New(db).GetRawStorage(addr, k1)
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Equal(t, 0, reopened.Stage().Len())
}

func TestStorageCodec(t *testing.T) {
	assert.Nil(t, encodeBytes32(rcc.Bytes32{}))

	v := rcc.Uint64ToBytes32(0x1234)
	raw := encodeBytes32(v)
	assert.Len(t, raw, 3)

	decoded, err := decodeBytes32(raw)
	require.NoError(t, err)
	assert.Equal(t, v, decoded)

	decoded, err = decodeBytes32(nil)
	require.NoError(t, err)
	assert.True(t, decoded.IsZero())
}
