// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustABI(t *testing.T) {
	for _, name := range []string{"RCCStake", "Token"} {
		var fields []map[string]any
		assert.NoError(t, json.Unmarshal(MustABI(name), &fields), name)
		assert.NotEmpty(t, fields, name)
	}
	assert.Panics(t, func() { MustABI("Missing") })
}
