// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governor

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rccstake/rccstake/rcc"
)

// Layout is the ordered list of storage slot names used by a contract version.
type Layout []string

// Hash returns the blake2b hash over the rlp encoded manifest.
func (l Layout) Hash() rcc.Bytes32 {
	return rcc.Blake2bFn(func(w io.Writer) {
		if err := rlp.Encode(w, []string(l)); err != nil {
			panic(err)
		}
	})
}

// Extends reports whether l keeps every slot of old in the same order.
func (l Layout) Extends(old Layout) bool {
	if len(l) < len(old) {
		return false
	}
	for i, name := range old {
		if l[i] != name {
			return false
		}
	}
	return true
}
