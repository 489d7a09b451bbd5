// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements a native fungible token ledger.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/builtin/gen"
	"github.com/rccstake/rccstake/builtin/solidity"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/xenv"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")

	ABI = abi.MustParse(gen.MustABI("Token"))

	transferEvent = mustEvent("Transfer")
	approvalEvent = mustEvent("Approval")
)

func mustEvent(name string) *abi.Event {
	ev, ok := ABI.EventByName(name)
	if !ok {
		panic("token: event not found: " + name)
	}
	return ev
}

// Token is the ledger of one token contract address.
type Token struct {
	addr       rcc.Address
	env        *xenv.Environment
	supply     *solidity.Uint256
	balances   *solidity.Mapping[rcc.Address, *big.Int]
	allowances *solidity.Mapping[rcc.Bytes32, *big.Int]
}

func New(addr rcc.Address, env *xenv.Environment) *Token {
	sctx := solidity.NewContext(addr, env.State())
	return &Token{
		addr:       addr,
		env:        env,
		supply:     solidity.NewUint256(sctx, solidity.NameToSlot("total-supply")),
		balances:   solidity.NewMapping[rcc.Address, *big.Int](sctx, solidity.NameToSlot("balances")),
		allowances: solidity.NewMapping[rcc.Bytes32, *big.Int](sctx, solidity.NameToSlot("allowances")),
	}
}

func allowanceKey(owner, spender rcc.Address) rcc.Bytes32 {
	return rcc.Blake2b(owner.Bytes(), spender.Bytes())
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return ErrInvalidAmount
	}
	return nil
}

func (t *Token) Address() rcc.Address { return t.addr }

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

func (t *Token) BalanceOf(owner rcc.Address) (*big.Int, error) {
	return t.balances.Get(owner)
}

func (t *Token) Allowance(owner, spender rcc.Address) (*big.Int, error) {
	return t.allowances.Get(allowanceKey(owner, spender))
}

// Mint creates amount tokens for to.
func (t *Token) Mint(to rcc.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	supply, err := t.supply.Get()
	if err != nil {
		return err
	}
	supply.Add(supply, amount)
	if supply.BitLen() > 256 {
		return ErrInvalidAmount
	}
	bal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if err := t.balances.Set(to, bal.Add(bal, amount)); err != nil {
		return err
	}
	t.supply.Set(supply)
	return t.emitTransfer(rcc.Address{}, to, amount)
}

// Transfer moves amount from sender to recipient.
func (t *Token) Transfer(from, to rcc.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	fromBal, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.balances.Set(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if err := t.balances.Set(to, toBal.Add(toBal, amount)); err != nil {
		return err
	}
	return t.emitTransfer(from, to, amount)
}

// Approve sets the allowance of spender over owner's tokens.
func (t *Token) Approve(owner, spender rcc.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.allowances.Set(allowanceKey(owner, spender), amount); err != nil {
		return err
	}
	return t.env.Log(approvalEvent, t.addr,
		[]rcc.Bytes32{rcc.BytesToBytes32(owner.Bytes()), rcc.BytesToBytes32(spender.Bytes())},
		amount)
}

// TransferFrom moves amount from owner to recipient on behalf of spender.
func (t *Token) TransferFrom(spender, from, to rcc.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	key := allowanceKey(from, spender)
	allowance, err := t.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.Transfer(from, to, amount); err != nil {
		return err
	}
	return t.allowances.Set(key, allowance.Sub(allowance, amount))
}

func (t *Token) emitTransfer(from, to rcc.Address, amount *big.Int) error {
	return t.env.Log(transferEvent, t.addr,
		[]rcc.Bytes32{rcc.BytesToBytes32(from.Bytes()), rcc.BytesToBytes32(to.Bytes())},
		amount)
}
