// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes contract calls one at a time and commits their effects.
package runtime

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/builtin/rccstake"
	"github.com/rccstake/rccstake/builtin/rccstake/reverts"
	"github.com/rccstake/rccstake/builtin/token"
	"github.com/rccstake/rccstake/kv"
	"github.com/rccstake/rccstake/log"
	"github.com/rccstake/rccstake/metrics"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/state"
	"github.com/rccstake/rccstake/tx"
	"github.com/rccstake/rccstake/xenv"
)

const (
	metaBucket    = kv.Bucket("m")
	receiptBucket = kv.Bucket("r")
)

var (
	headKey = []byte("head")
	seqKey  = []byte("seq")

	// ErrHeightRegression is returned when a call is made below the current height.
	ErrHeightRegression = errors.New("height regression")
	// ErrSubscriberLagging ends a receipt subscription whose channel is full.
	ErrSubscriberLagging = errors.New("receipt subscriber lagging")

	logger = log.WithContext("pkg", "runtime")

	metricCalls  = metrics.LazyLoadCounterVec("runtime_calls_count", []string{"status"})
	metricHeight = metrics.LazyLoadGauge("runtime_height")
	metricLagged = metrics.LazyLoadCounter("runtime_lagged_subscribers_count")
)

// Call gives access to the contract and the token ledgers within one execution.
type Call struct {
	Contract *rccstake.RCCStake
	Env      *xenv.Environment
}

// Token returns the ledger of the token at addr.
func (c *Call) Token(addr rcc.Address) *token.Token {
	return token.New(addr, c.Env)
}

// Runtime serializes calls against the contract state.
type Runtime struct {
	mu     sync.Mutex
	store  kv.Store
	state  *state.State
	addr   rcc.Address
	code   rccstake.Code
	height uint32
	seq    uint64

	subsMu sync.Mutex
	subs   map[*receiptSub]struct{}
	scope  event.SubscriptionScope
}

type receiptSub struct {
	ch     chan<- *tx.Receipt
	lagged chan struct{}
}

// New opens the runtime over store. It fails if the stored contract schema is newer than code.
func New(store kv.Store, addr rcc.Address, code rccstake.Code) (*Runtime, error) {
	rt := &Runtime{
		store: store,
		state: state.New(store),
		addr:  addr,
		code:  code,
		subs:  make(map[*receiptSub]struct{}),
	}
	meta := metaBucket.NewGetter(store)
	if data, err := meta.Get(headKey); err == nil {
		rt.height = binary.BigEndian.Uint32(data)
	} else if !meta.IsNotFound(err) {
		return nil, errors.Wrap(err, "load head")
	}
	if data, err := meta.Get(seqKey); err == nil {
		rt.seq = binary.BigEndian.Uint64(data)
	} else if !meta.IsNotFound(err) {
		return nil, errors.Wrap(err, "load seq")
	}

	// refuse to run on storage written by newer code
	if err := rt.View(func(*Call) error { return nil }); err != nil {
		return nil, err
	}
	metricHeight().Set(int64(rt.height))
	return rt, nil
}

// Height returns the current height.
func (rt *Runtime) Height() uint32 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.height
}

// Advance moves the current height forward.
func (rt *Runtime) Advance(height uint32) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if height < rt.height {
		return ErrHeightRegression
	}
	if err := rt.putMeta(metaBucket.NewPutter(rt.store), height, rt.seq); err != nil {
		return err
	}
	rt.height = height
	metricHeight().Set(int64(height))
	return nil
}

func (rt *Runtime) putMeta(putter kv.Putter, height uint32, seq uint64) error {
	var h [4]byte
	binary.BigEndian.PutUint32(h[:], height)
	if err := putter.Put(headKey, h[:]); err != nil {
		return errors.Wrap(err, "put head")
	}
	var s [8]byte
	binary.BigEndian.PutUint64(s[:], seq)
	if err := putter.Put(seqKey, s[:]); err != nil {
		return errors.Wrap(err, "put seq")
	}
	return nil
}

func (rt *Runtime) newCall(env *xenv.Environment) (*Call, error) {
	c, err := rccstake.NewWithCode(rt.addr, env, token.NewBank(env, rt.addr), rt.code)
	if err != nil {
		return nil, err
	}
	return &Call{Contract: c, Env: env}, nil
}

// Execute runs fn as caller at height. A height of zero means the current height.
// Reverts are reported in the receipt; other errors abort without any effect.
func (rt *Runtime) Execute(caller rcc.Address, height uint32, method string, fn func(call *Call) error) (*tx.Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if height == 0 {
		height = rt.height
	}
	if height < rt.height {
		metricCalls().AddWithLabel(1, map[string]string{"status": "rejected"})
		return nil, ErrHeightRegression
	}

	env := xenv.New(rt.state, &xenv.BlockContext{Number: height, Time: uint64(time.Now().Unix())}, caller)
	call, err := rt.newCall(env)
	if err != nil {
		return nil, err
	}

	checkpoint := rt.state.NewCheckpoint()
	receipt := &tx.Receipt{
		Seq:    rt.seq + 1,
		Height: height,
		Caller: caller,
		Method: method,
	}
	if err := fn(call); err != nil {
		rt.state.RevertTo(checkpoint)
		if !isRevert(err) {
			metricCalls().AddWithLabel(1, map[string]string{"status": "failed"})
			logger.Warn("call failed", "method", method, "caller", caller, "err", err)
			return nil, err
		}
		receipt.Reverted = true
		receipt.RevertData = abi.PackRevert(reverts.Message(err))
	} else {
		receipt.Events = env.Events()
	}

	data, err := tx.EncodeReceipt(receipt)
	if err != nil {
		rt.state.RevertTo(checkpoint)
		return nil, errors.Wrap(err, "encode receipt")
	}
	err = rt.state.Stage().Commit(func(putter kv.Putter) error {
		if err := rt.putMeta(metaBucket.NewPutter(putter), height, receipt.Seq); err != nil {
			return err
		}
		return receiptBucket.NewPutter(putter).Put(seqBytes(receipt.Seq), data)
	})
	if err != nil {
		rt.state.RevertTo(checkpoint)
		return nil, err
	}
	rt.height = height
	rt.seq = receipt.Seq

	status := "success"
	if receipt.Reverted {
		status = "reverted"
	}
	metricCalls().AddWithLabel(1, map[string]string{"status": status})
	metricHeight().Set(int64(height))
	logger.Debug("executed", "seq", receipt.Seq, "method", method, "caller", caller, "height", height, "status", status, "events", len(receipt.Events))

	rt.publish(receipt)
	return receipt, nil
}

// View runs fn against committed state at the current height. Writes are rejected.
func (rt *Runtime) View(fn func(call *Call) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	env := xenv.NewReadonly(rt.state, &xenv.BlockContext{Number: rt.height, Time: uint64(time.Now().Unix())})
	call, err := rt.newCall(env)
	if err != nil {
		return err
	}
	checkpoint := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(checkpoint)
	return fn(call)
}

// Receipt loads the receipt with sequence number seq.
func (rt *Runtime) Receipt(seq uint64) (*tx.Receipt, error) {
	data, err := receiptBucket.NewGetter(rt.store).Get(seqBytes(seq))
	if err != nil {
		return nil, err
	}
	return tx.DecodeReceipt(data)
}

// Seq returns the sequence number of the last executed call.
func (rt *Runtime) Seq() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.seq
}

// SubscribeReceipts delivers every receipt produced after subscription, in order.
// Delivery never blocks: once ch is full the subscription ends with ErrSubscriberLagging.
func (rt *Runtime) SubscribeReceipts(ch chan *tx.Receipt) event.Subscription {
	s := &receiptSub{ch: ch, lagged: make(chan struct{})}
	rt.subsMu.Lock()
	rt.subs[s] = struct{}{}
	rt.subsMu.Unlock()

	return rt.scope.Track(event.NewSubscription(func(quit <-chan struct{}) error {
		defer func() {
			rt.subsMu.Lock()
			delete(rt.subs, s)
			rt.subsMu.Unlock()
		}()
		select {
		case <-quit:
			return nil
		case <-s.lagged:
			return ErrSubscriberLagging
		}
	}))
}

// publish hands r to every subscriber and drops those that cannot take it.
func (rt *Runtime) publish(r *tx.Receipt) {
	rt.subsMu.Lock()
	defer rt.subsMu.Unlock()

	for s := range rt.subs {
		select {
		case s.ch <- r:
		default:
			delete(rt.subs, s)
			close(s.lagged)
			metricLagged().Add(1)
			logger.Debug("dropped lagging subscriber", "seq", r.Seq)
		}
	}
}

// Close ends all subscriptions.
func (rt *Runtime) Close() {
	rt.scope.Close()
}

// isRevert reports whether err is a rejection by contract or token rules.
func isRevert(err error) bool {
	return reverts.IsRevertErr(err) ||
		errors.Is(err, token.ErrInsufficientBalance) ||
		errors.Is(err, token.ErrInsufficientAllowance) ||
		errors.Is(err, token.ErrInvalidAmount)
}

func seqBytes(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}
