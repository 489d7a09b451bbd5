// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rccstake/rccstake/rcc"
)

func decodeBytes32(raw []byte) (rcc.Bytes32, error) {
	if len(raw) == 0 {
		return rcc.Bytes32{}, nil
	}
	_, content, _, err := rlp.Split(raw)
	if err != nil {
		return rcc.Bytes32{}, err
	}
	return rcc.BytesToBytes32(content), nil
}

func encodeBytes32(value rcc.Bytes32) rlp.RawValue {
	if value.IsZero() {
		return nil
	}
	trimmed, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	return trimmed
}
