// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/xenv"
)

// Bank moves tokens in and out of a custodian account.
type Bank struct {
	env       *xenv.Environment
	custodian rcc.Address
}

func NewBank(env *xenv.Environment, custodian rcc.Address) *Bank {
	return &Bank{env: env, custodian: custodian}
}

// TransferIn pulls amount of token from the user, spending the allowance granted to the custodian.
func (b *Bank) TransferIn(token, from rcc.Address, amount *big.Int) error {
	return New(token, b.env).TransferFrom(b.custodian, from, b.custodian, amount)
}

// TransferOut pays amount of token from the custodian.
func (b *Bank) TransferOut(token, to rcc.Address, amount *big.Int) error {
	return New(token, b.env).Transfer(b.custodian, to, amount)
}

// BalanceOf returns the balance of owner in token.
func (b *Bank) BalanceOf(token, owner rcc.Address) (*big.Int, error) {
	return New(token, b.env).BalanceOf(owner)
}
