// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/builtin/rccstake"
	"github.com/rccstake/rccstake/builtin/rccstake/governor"
	"github.com/rccstake/rccstake/lvldb"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/tx"
	"github.com/rccstake/rccstake/xenv"
)

var (
	owner       = rcc.BytesToAddress([]byte("owner"))
	alice       = rcc.BytesToAddress([]byte("alice"))
	rewardToken = rcc.BytesToAddress([]byte("rcc"))
	stakeToken  = rcc.BytesToAddress([]byte("stk"))
	contract    = rcc.StakeContractAddress
)

func newRuntime(t *testing.T) (*Runtime, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rt, err := New(db, contract, rccstake.Current)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt, db
}

func mustExecute(t *testing.T, rt *Runtime, caller rcc.Address, height uint32, method string, fn func(call *Call) error) *tx.Receipt {
	r, err := rt.Execute(caller, height, method, fn)
	require.NoError(t, err)
	require.False(t, r.Reverted, "%s reverted", method)
	return r
}

// bootstrap initializes the contract, adds one pool and funds alice.
func bootstrap(t *testing.T, rt *Runtime) {
	mustExecute(t, rt, owner, 90, "initialize", func(call *Call) error {
		return call.Contract.Initialize(rewardToken, 100, 200, big.NewInt(10), nil)
	})
	mustExecute(t, rt, owner, 90, "addPool", func(call *Call) error {
		_, err := call.Contract.AddPool(stakeToken, 1, big.NewInt(1), 10)
		return err
	})
	mustExecute(t, rt, owner, 90, "mint", func(call *Call) error {
		if err := call.Token(rewardToken).Mint(contract, big.NewInt(1_000_000)); err != nil {
			return err
		}
		return call.Token(stakeToken).Mint(alice, big.NewInt(1_000))
	})
	mustExecute(t, rt, alice, 90, "approve", func(call *Call) error {
		return call.Token(stakeToken).Approve(alice, contract, big.NewInt(1_000))
	})
}

func TestExecute(t *testing.T) {
	rt, _ := newRuntime(t)
	bootstrap(t, rt)

	r := mustExecute(t, rt, alice, 100, "deposit", func(call *Call) error {
		return call.Contract.Deposit(0, big.NewInt(100))
	})
	assert.Equal(t, uint64(5), r.Seq)
	assert.Equal(t, uint32(100), r.Height)
	assert.Equal(t, alice, r.Caller)
	assert.NotEmpty(t, r.Events)
	assert.Equal(t, uint32(100), rt.Height())
	assert.Equal(t, uint64(5), rt.Seq())

	var pending *big.Int
	require.NoError(t, rt.View(func(call *Call) error {
		var err error
		pending, err = call.Contract.PendingReward(0, alice)
		return err
	}))
	assert.Equal(t, 0, pending.Sign())

	require.NoError(t, rt.Advance(150))
	require.NoError(t, rt.View(func(call *Call) error {
		var err error
		pending, err = call.Contract.PendingReward(0, alice)
		return err
	}))
	assert.Equal(t, "500", pending.String())

	// zero height runs at the current height
	r = mustExecute(t, rt, alice, 0, "claim", func(call *Call) error {
		_, err := call.Contract.Claim(0)
		return err
	})
	assert.Equal(t, uint32(150), r.Height)
}

func TestExecuteReverted(t *testing.T) {
	rt, _ := newRuntime(t)
	bootstrap(t, rt)

	r, err := rt.Execute(alice, 100, "deposit", func(call *Call) error {
		return call.Contract.Deposit(0, big.NewInt(10_000))
	})
	require.NoError(t, err)
	assert.True(t, r.Reverted)
	assert.Empty(t, r.Events)

	reason, err := abi.UnpackRevert(r.RevertData)
	require.NoError(t, err)
	assert.Equal(t, "transfer failed", reason)

	// nothing staked, but the call is recorded
	require.NoError(t, rt.View(func(call *Call) error {
		p, err := call.Contract.PoolInfo(0)
		if err != nil {
			return err
		}
		assert.Equal(t, 0, p.TotalStaked.Sign())
		return nil
	}))
	stored, err := rt.Receipt(r.Seq)
	require.NoError(t, err)
	assert.True(t, stored.Reverted)
	assert.Equal(t, r.RevertData, stored.RevertData)
}

func TestHeightRegression(t *testing.T) {
	rt, _ := newRuntime(t)
	bootstrap(t, rt)

	_, err := rt.Execute(alice, 80, "deposit", func(call *Call) error {
		return call.Contract.Deposit(0, big.NewInt(10))
	})
	assert.ErrorIs(t, err, ErrHeightRegression)
	assert.ErrorIs(t, rt.Advance(10), ErrHeightRegression)
	assert.Equal(t, uint64(4), rt.Seq())
}

func TestViewIsReadonly(t *testing.T) {
	rt, _ := newRuntime(t)
	bootstrap(t, rt)

	err := rt.View(func(call *Call) error {
		return call.Token(stakeToken).Mint(alice, big.NewInt(5))
	})
	assert.ErrorIs(t, err, xenv.ErrWriteProtection)

	require.NoError(t, rt.View(func(call *Call) error {
		bal, err := call.Token(stakeToken).BalanceOf(alice)
		assert.Equal(t, "1000", bal.String())
		return err
	}))
}

func TestReopen(t *testing.T) {
	rt, db := newRuntime(t)
	bootstrap(t, rt)
	mustExecute(t, rt, alice, 120, "deposit", func(call *Call) error {
		return call.Contract.Deposit(0, big.NewInt(100))
	})

	reopened, err := New(db, contract, rccstake.Current)
	require.NoError(t, err)
	assert.Equal(t, uint32(120), reopened.Height())
	assert.Equal(t, uint64(5), reopened.Seq())

	require.NoError(t, reopened.View(func(call *Call) error {
		pos, err := call.Contract.UserInfo(0, alice)
		if err != nil {
			return err
		}
		assert.Equal(t, "100", pos.StakedAmount.String())
		return nil
	}))

	older := rccstake.Code{Version: 0, Layout: governor.Layout{}}
	_, err = New(db, contract, older)
	assert.Error(t, err)
}

func TestSubscribeReceipts(t *testing.T) {
	rt, _ := newRuntime(t)

	ch := make(chan *tx.Receipt, 1)
	sub := rt.SubscribeReceipts(ch)
	defer sub.Unsubscribe()

	mustExecute(t, rt, owner, 1, "initialize", func(call *Call) error {
		return call.Contract.Initialize(rewardToken, 100, 200, big.NewInt(10), nil)
	})

	select {
	case r := <-ch:
		assert.Equal(t, "initialize", r.Method)
		assert.Equal(t, uint64(1), r.Seq)
	case <-time.After(time.Second):
		t.Fatal("no receipt delivered")
	}

	rt.Close()
	select {
	case <-sub.Err():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestLaggingSubscriberDropped(t *testing.T) {
	rt, _ := newRuntime(t)

	stuck := make(chan *tx.Receipt, 1)
	stuckSub := rt.SubscribeReceipts(stuck)
	defer stuckSub.Unsubscribe()

	healthy := make(chan *tx.Receipt, 8)
	healthySub := rt.SubscribeReceipts(healthy)
	defer healthySub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 3 {
			if _, err := rt.Execute(owner, 1, "mint", func(call *Call) error {
				return call.Token(stakeToken).Mint(alice, big.NewInt(1))
			}); err != nil {
				t.Error(err)
				return
			}
		}
		if err := rt.View(func(*Call) error { return nil }); err != nil {
			t.Error(err)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("execute blocked by a full subscriber")
	}

	select {
	case err := <-stuckSub.Err():
		assert.ErrorIs(t, err, ErrSubscriberLagging)
	case <-time.After(time.Second):
		t.Fatal("lagging subscription not ended")
	}
	assert.Len(t, stuck, 1)

	for seq := uint64(1); seq <= 3; seq++ {
		r := <-healthy
		assert.Equal(t, seq, r.Seq)
	}
}
