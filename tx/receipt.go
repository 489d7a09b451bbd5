// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rccstake/rccstake/rcc"
)

// Receipt represents the results of a call.
type Receipt struct {
	// sequence number assigned by the runtime
	Seq uint64
	// block height the call executed at
	Height uint32
	Caller rcc.Address
	Method string
	// whether the call was reverted
	Reverted bool
	// abi-encoded Error(string) payload, empty if not reverted
	RevertData []byte
	// events emitted, always empty if reverted
	Events Events
}

// Receipts slice of receipts.
type Receipts []*Receipt

// RootHash computes the blake2b hash over the rlp encoding of all receipts.
func (rs Receipts) RootHash() rcc.Bytes32 {
	hasher := rcc.NewBlake2b()
	for _, r := range rs {
		if err := rlp.Encode(hasher, r); err != nil {
			panic(err)
		}
	}
	var h rcc.Bytes32
	hasher.Sum(h[:0])
	return h
}

// EncodeReceipt rlp-encodes the receipt for persistence.
func EncodeReceipt(r *Receipt) ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// DecodeReceipt decodes a receipt produced by EncodeReceipt.
func DecodeReceipt(data []byte) (*Receipt, error) {
	var r Receipt
	if err := rlp.DecodeBytes(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
