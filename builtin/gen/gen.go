// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gen embeds the ABI of the built-in contracts.
package gen

import (
	"embed"
	"path"
)

//go:embed compiled/*.abi
var compiled embed.FS

// Asset returns the content of the named compiled file, e.g. "compiled/RCCStake.abi".
func Asset(name string) ([]byte, error) {
	return compiled.ReadFile(name)
}

// MustABI returns the ABI JSON of the named contract, panics if not found.
func MustABI(contract string) []byte {
	data, err := Asset(path.Join("compiled", contract+".abi"))
	if err != nil {
		panic(err)
	}
	return data
}
