// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rcc

import (
	"math/big"
)

// Constants of the staking ledger.
var (
	// Scale is the fixed-point scale of the per-share reward accumulator.
	Scale = big.NewInt(1e18)

	// Ether is the smallest-unit multiplier of an 18 decimals token.
	Ether = big.NewInt(1e18)
)

// SchemaVersion is the storage schema version implemented by this build.
// It must only ever grow.
const SchemaVersion uint32 = 1

// Built-in addresses.
var (
	// StakeContractAddress is the address the staking contract state lives at, i.e. the proxy address.
	StakeContractAddress = BytesToAddress([]byte("RCCStake"))
)
