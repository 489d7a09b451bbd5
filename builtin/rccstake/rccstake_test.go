// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rccstake

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rccstake/rccstake/builtin/rccstake/position"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/builtin/token"
	"github.com/rccstake/rccstake/kv"
	"github.com/rccstake/rccstake/lvldb"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/state"
	"github.com/rccstake/rccstake/tx"
	"github.com/rccstake/rccstake/xenv"
)

var (
	owner       = rcc.BytesToAddress([]byte("owner"))
	alice       = rcc.BytesToAddress([]byte("alice"))
	bob         = rcc.BytesToAddress([]byte("bob"))
	rewardToken = rcc.BytesToAddress([]byte("rcc"))
	stakeToken  = rcc.BytesToAddress([]byte("stk"))
	contract    = rcc.StakeContractAddress
)

type testChain struct {
	t  *testing.T
	st *state.State
}

func newTestChain(t *testing.T) *testChain {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newTestChainOn(t, db)
}

func newTestChainOn(t *testing.T, store kv.Store) *testChain {
	return &testChain{t: t, st: state.New(store)}
}

// at returns the contract as seen by caller at height, with the token bank as balance service.
func (tc *testChain) at(height uint32, caller rcc.Address) (*RCCStake, *xenv.Environment) {
	env := xenv.New(tc.st, &xenv.BlockContext{Number: height}, caller)
	c, err := New(contract, env, token.NewBank(env, contract))
	require.NoError(tc.t, err)
	return c, env
}

func (tc *testChain) token(addr rcc.Address) *token.Token {
	return token.New(addr, xenv.New(tc.st, &xenv.BlockContext{}, rcc.Address{}))
}

func (tc *testChain) balance(tokenAddr, owner rcc.Address) *big.Int {
	bal, err := tc.token(tokenAddr).BalanceOf(owner)
	require.NoError(tc.t, err)
	return bal
}

// fund mints staking tokens to users, approves the contract and funds the reward pot.
func (tc *testChain) fund(users ...rcc.Address) {
	stk := tc.token(stakeToken)
	for _, u := range users {
		require.NoError(tc.t, stk.Mint(u, big.NewInt(1_000_000)))
		require.NoError(tc.t, stk.Approve(u, contract, big.NewInt(1_000_000)))
	}
	require.NoError(tc.t, tc.token(rewardToken).Mint(contract, big.NewInt(1_000_000)))
}

// setup initializes with rate 10 over [100, 200] and adds one pool at height 90.
func setup(t *testing.T) *testChain {
	tc := newTestChain(t)
	tc.fund(alice, bob)

	c, _ := tc.at(90, owner)
	require.NoError(t, c.Initialize(rewardToken, 100, 200, big.NewInt(10), nil))
	id, err := c.AddPool(stakeToken, 1, big.NewInt(1), 10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)
	return tc
}

func eventNames(events tx.Events) []string {
	var names []string
	for _, e := range events {
		if ev, ok := ABI.EventByID(e.Topics[0]); ok {
			names = append(names, ev.Name())
		} else if ev, ok := token.ABI.EventByID(e.Topics[0]); ok {
			names = append(names, ev.Name())
		}
	}
	return names
}

func TestInitialize(t *testing.T) {
	tc := newTestChain(t)

	c, _ := tc.at(1, owner)
	_, err := c.AddPool(stakeToken, 1, big.NewInt(1), 10)
	assert.ErrorIs(t, err, reverts.ErrNotInitialized)
	assert.ErrorIs(t, c.Deposit(0, big.NewInt(1)), reverts.ErrNotInitialized)
	assert.ErrorIs(t, c.Pause(), reverts.ErrNotInitialized)

	assert.ErrorIs(t, c.Initialize(rewardToken, 200, 200, big.NewInt(10), nil), reverts.ErrInvalidSchedule)
	assert.ErrorIs(t, c.Initialize(rcc.Address{}, 100, 200, big.NewInt(10), nil), reverts.ErrInvalidAddress)

	admin := alice
	c, env := tc.at(1, owner)
	require.NoError(t, c.Initialize(rewardToken, 100, 200, big.NewInt(10), &admin))
	assert.Equal(t, []string{"OwnershipTransferred", "Initialized"}, eventNames(env.Events()))

	got, err := c.Owner()
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	v, err := c.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, rcc.SchemaVersion, v)

	hash, err := c.LayoutHash()
	require.NoError(t, err)
	assert.Equal(t, Layout.Hash(), hash)

	// a second initialize fails and changes nothing
	c, env = tc.at(2, bob)
	assert.ErrorIs(t, c.Initialize(stakeToken, 1, 5, big.NewInt(99), nil), reverts.ErrAlreadyInitialized)
	assert.Empty(t, env.Events())

	sched, err := c.Schedule()
	require.NoError(t, err)
	assert.Equal(t, rewardToken, sched.RewardToken)
	assert.Equal(t, uint32(100), sched.StartHeight)
	assert.Equal(t, big.NewInt(10), sched.RewardPerHeight)
	got, _ = c.Owner()
	assert.Equal(t, alice, got)
}

func TestTwoStakerScenario(t *testing.T) {
	tc := setup(t)

	c, env := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))
	assert.Equal(t, []string{"Transfer", "Deposited"}, eventNames(env.Events()))

	c, _ = tc.at(150, bob)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))

	p, err := c.PoolInfo(0)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(10), rcc.Scale), p.AccRewardPerShare)

	c, _ = tc.at(250, alice)
	pending, err := c.PendingReward(0, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(750), pending)

	reward, err := c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(750), reward)

	c, _ = tc.at(250, bob)
	reward, err = c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(250), reward)

	p, err = c.PoolInfo(0)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(15), rcc.Scale), p.AccRewardPerShare)
	assert.Equal(t, uint32(200), p.LastAccrualHeight)

	assert.Equal(t, big.NewInt(750), tc.balance(rewardToken, alice))
	assert.Equal(t, big.NewInt(250), tc.balance(rewardToken, bob))
	assert.Equal(t, big.NewInt(1_000_000-1000), tc.balance(rewardToken, contract))

	pos, err := c.UserInfo(0, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(750), pos.Claimed)
	assert.Equal(t, position.StatusStaked, pos.Status())
}

func TestClaimIsIdempotent(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(10)))

	c, env := tc.at(120, alice)
	reward, err := c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), reward)

	before := len(env.Events())
	_, err = c.Claim(0)
	assert.ErrorIs(t, err, reverts.ErrNothingToClaim)
	assert.Len(t, env.Events(), before)
	assert.Equal(t, big.NewInt(200), tc.balance(rewardToken, alice))

	// reward is frozen after the end height
	c, _ = tc.at(500, alice)
	reward, err = c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(800), reward)

	c, _ = tc.at(900, alice)
	_, err = c.Claim(0)
	assert.ErrorIs(t, err, reverts.ErrNothingToClaim)
}

func TestDepositRules(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, owner)
	require.NoError(t, c.UpdatePool(0, big.NewInt(5), 10))

	c, env := tc.at(100, alice)
	assert.ErrorIs(t, c.Deposit(0, big.NewInt(4)), reverts.ErrBelowMinimum)
	assert.ErrorIs(t, c.Deposit(1, big.NewInt(5)), reverts.ErrPoolNotFound)
	assert.Empty(t, env.Events())

	require.NoError(t, c.Deposit(0, big.NewInt(5)))
	assert.Equal(t, big.NewInt(1_000_000-5), tc.balance(stakeToken, alice))
	assert.Equal(t, big.NewInt(5), tc.balance(stakeToken, contract))
}

func TestWithdrawLock(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))

	c, env := tc.at(110, alice)
	assert.ErrorIs(t, c.RequestWithdraw(0, big.NewInt(0)), reverts.ErrZeroAmount)
	assert.ErrorIs(t, c.RequestWithdraw(0, big.NewInt(51)), reverts.ErrInsufficientStake)
	require.NoError(t, c.RequestWithdraw(0, big.NewInt(25)))
	assert.Equal(t, []string{"WithdrawRequested"}, eventNames(env.Events()))

	p, _ := c.PoolInfo(0)
	assert.Equal(t, big.NewInt(25), p.TotalStaked)

	// still locked: a no-op
	c, env = tc.at(119, alice)
	amount, err := c.Withdraw(0)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Sign())
	assert.Empty(t, env.Events())

	requested, unlocked, err := c.WithdrawAmount(0, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), requested)
	assert.Equal(t, 0, unlocked.Sign())

	pos, _ := c.UserInfo(0, alice)
	assert.Equal(t, position.StatusPartiallyUnstaking, pos.Status())

	c, env = tc.at(120, alice)
	amount, err = c.Withdraw(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(25), amount)
	assert.Equal(t, []string{"Transfer", "Withdrawn"}, eventNames(env.Events()))
	assert.Equal(t, big.NewInt(1_000_000-25), tc.balance(stakeToken, alice))

	// a second withdraw finds nothing
	amount, err = c.Withdraw(0)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Sign())

	// unstaked amount stopped earning at 110
	reward, err := c.Claim(0)
	require.NoError(t, err)
	// 10 heights at 50 staked then 10 heights at 25 staked
	assert.Equal(t, big.NewInt(200), reward)
}

func TestPause(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))
	require.NoError(t, c.RequestWithdraw(0, big.NewInt(10)))
	assert.ErrorIs(t, c.Pause(), reverts.ErrUnauthorized)

	c, env := tc.at(105, owner)
	assert.ErrorIs(t, c.Unpause(), reverts.ErrNotPaused)
	require.NoError(t, c.Pause())
	assert.ErrorIs(t, c.Pause(), reverts.ErrAlreadyPaused)
	assert.Equal(t, []string{"Paused"}, eventNames(env.Events()))

	c, _ = tc.at(120, alice)
	assert.ErrorIs(t, c.Deposit(0, big.NewInt(1)), reverts.ErrPaused)
	assert.ErrorIs(t, c.RequestWithdraw(0, big.NewInt(1)), reverts.ErrPaused)
	_, err := c.Claim(0)
	assert.ErrorIs(t, err, reverts.ErrPaused)

	amount, err := c.Withdraw(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), amount)

	c, _ = tc.at(121, owner)
	require.NoError(t, c.Unpause())
	paused, err := c.Paused()
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestAdminAccess(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	_, err := c.AddPool(stakeToken, 1, big.NewInt(1), 1)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	assert.ErrorIs(t, c.SetPoolWeight(0, 2), reverts.ErrUnauthorized)
	assert.ErrorIs(t, c.UpdatePool(0, big.NewInt(1), 1), reverts.ErrUnauthorized)
	assert.ErrorIs(t, c.SetRewardPerHeight(big.NewInt(1)), reverts.ErrUnauthorized)
	assert.ErrorIs(t, c.TransferOwnership(alice), reverts.ErrUnauthorized)
	assert.ErrorIs(t, c.Upgrade(), reverts.ErrUnauthorized)

	c, env := tc.at(100, owner)
	_, err = c.AddPool(stakeToken, 0, big.NewInt(1), 1)
	assert.ErrorIs(t, err, reverts.ErrInvalidWeight)
	assert.ErrorIs(t, c.SetPoolWeight(7, 1), reverts.ErrPoolNotFound)

	require.NoError(t, c.TransferOwnership(alice))
	assert.Equal(t, []string{"OwnershipTransferred"}, eventNames(env.Events()))
	assert.ErrorIs(t, c.Pause(), reverts.ErrUnauthorized)

	c, _ = tc.at(100, alice)
	require.NoError(t, c.Pause())
}

func TestWeightsSplitReward(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, owner)
	id, err := c.AddPool(stakeToken, 3, big.NewInt(1), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	n, err := c.PoolLength()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	c, _ = tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(10)))
	c, _ = tc.at(100, bob)
	require.NoError(t, c.Deposit(1, big.NewInt(10)))

	// pool 1 is removed at 140: bob earns 40*10*3/4 until then
	c, env := tc.at(140, owner)
	require.NoError(t, c.SetPoolWeight(1, 0))
	assert.Equal(t, []string{"WeightChanged"}, eventNames(env.Events()))
	w, err := c.TotalWeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w)

	c, _ = tc.at(200, bob)
	reward, err := c.Claim(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), reward)

	// alice gets 40*10/4 + 60*10
	c, _ = tc.at(200, alice)
	reward, err = c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(700), reward)
}

func TestScheduleUpdate(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(10)))

	// earnings under the old rate are settled before the change
	c, env := tc.at(150, owner)
	require.NoError(t, c.SetRewardPerHeight(big.NewInt(20)))
	require.NoError(t, c.SetEndHeight(160))
	assert.ErrorIs(t, c.SetStartHeight(160), reverts.ErrInvalidSchedule)
	assert.Equal(t, []string{"ScheduleUpdated", "ScheduleUpdated"}, eventNames(env.Events()))

	c, _ = tc.at(300, alice)
	reward, err := c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50*10+10*20), reward)
}

func TestSyncPools(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, owner)
	_, err := c.AddPool(stakeToken, 1, big.NewInt(1), 0)
	require.NoError(t, err)

	c, _ = tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(10)))

	c, env := tc.at(120, bob)
	require.NoError(t, c.SyncPool(0))
	assert.ErrorIs(t, c.SyncPool(5), reverts.ErrPoolNotFound)
	require.NoError(t, c.SyncAllPools())
	assert.Equal(t, []string{"PoolSynced", "PoolSynced", "PoolSynced"}, eventNames(env.Events()))

	p, err := c.PoolInfo(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(120), p.LastAccrualHeight)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(10), rcc.Scale), p.AccRewardPerShare)
}

// failingBank refuses every transfer.
type failingBank struct{}

func (failingBank) TransferIn(rcc.Address, rcc.Address, *big.Int) error {
	return errors.New("bank offline")
}

func (failingBank) TransferOut(rcc.Address, rcc.Address, *big.Int) error {
	return errors.New("bank offline")
}

func TestFailedTransferRollsBack(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))

	env := xenv.New(tc.st, &xenv.BlockContext{Number: 150}, alice)
	c, err := New(contract, env, failingBank{})
	require.NoError(t, err)

	before, err := c.UserInfo(0, alice)
	require.NoError(t, err)

	err = c.Deposit(0, big.NewInt(5))
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.Equal(t, "transfer failed: bank offline", err.Error())

	_, err = c.Claim(0)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.Empty(t, env.Events())

	after, err := c.UserInfo(0, alice)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	p, err := c.PoolInfo(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), p.TotalStaked)
	assert.Equal(t, uint32(100), p.LastAccrualHeight, "sync was rolled back too")
}

// reentrantBank calls back into the contract while a transfer is in flight.
type reentrantBank struct {
	c   *RCCStake
	err error
}

func (b *reentrantBank) TransferIn(rcc.Address, rcc.Address, *big.Int) error {
	b.err = b.c.Deposit(0, big.NewInt(1))
	return b.err
}

func (b *reentrantBank) TransferOut(rcc.Address, rcc.Address, *big.Int) error {
	_, b.err = b.c.Claim(0)
	return b.err
}

func TestReentrancyRejected(t *testing.T) {
	tc := setup(t)

	env := xenv.New(tc.st, &xenv.BlockContext{Number: 100}, alice)
	bank := &reentrantBank{}
	c, err := New(contract, env, bank)
	require.NoError(t, err)
	bank.c = c

	err = c.Deposit(0, big.NewInt(10))
	assert.ErrorIs(t, bank.err, reverts.ErrReentrantCall)
	assert.ErrorIs(t, err, reverts.ErrReentrantCall)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)

	p, err := c.PoolInfo(0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalStaked.Sign())

	// the guard is released afterwards
	require.NoError(t, c.SyncPool(0))
}

func TestPersistAndReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := lvldb.New(dir, lvldb.Options{})
	require.NoError(t, err)

	tc := newTestChainOn(t, db)
	tc.fund(alice)
	c, _ := tc.at(90, owner)
	require.NoError(t, c.Initialize(rewardToken, 100, 200, big.NewInt(10), nil))
	_, err = c.AddPool(stakeToken, 1, big.NewInt(1), 10)
	require.NoError(t, err)
	c, _ = tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))

	require.NoError(t, tc.st.Stage().Commit())
	require.NoError(t, db.Close())

	db, err = lvldb.New(dir, lvldb.Options{})
	require.NoError(t, err)
	defer db.Close()

	tc = newTestChainOn(t, db)
	c, _ = tc.at(150, alice)
	pending, err := c.PendingReward(0, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), pending)

	reward, err := c.Claim(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), reward)
}

func TestUpgradeKeepsBalances(t *testing.T) {
	tc := setup(t)

	c, _ := tc.at(100, alice)
	require.NoError(t, c.Deposit(0, big.NewInt(50)))

	next := Code{
		Version: rcc.SchemaVersion + 1,
		Layout:  append(Layout[:len(Layout):len(Layout)], "boost"),
	}

	env := xenv.New(tc.st, &xenv.BlockContext{Number: 150}, owner)
	upgraded, err := NewWithCode(contract, env, token.NewBank(env, contract), next)
	require.NoError(t, err)
	require.NoError(t, upgraded.Upgrade())
	assert.Equal(t, []string{"Upgraded"}, eventNames(env.Events()))
	assert.ErrorIs(t, upgraded.Upgrade(), reverts.ErrLayoutMismatch)
	assert.ErrorIs(t, upgraded.Initialize(rewardToken, 1, 2, big.NewInt(1), nil), reverts.ErrAlreadyInitialized)

	v, err := upgraded.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, next.Version, v)

	pos, err := upgraded.UserInfo(0, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), pos.StakedAmount)

	pending, err := upgraded.PendingReward(0, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), pending)

	// the old code refuses newer storage
	env = xenv.New(tc.st, &xenv.BlockContext{Number: 150}, owner)
	_, err = New(contract, env, token.NewBank(env, contract))
	assert.ErrorIs(t, err, reverts.ErrVersionTooNew)

	// a layout that drops slots is refused
	bad := Code{Version: next.Version + 1, Layout: Layout[1:]}
	broken, err := NewWithCode(contract, env, token.NewBank(env, contract), bad)
	require.NoError(t, err)
	assert.ErrorIs(t, broken.Upgrade(), reverts.ErrLayoutMismatch)
}
