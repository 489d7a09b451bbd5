// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages contract storage.
//
// Storage is addressed by (contract address, 32 bytes slot). Reads fall
// through a journal of uncommitted writes, an LRU cache of committed values
// and finally the kv store. Writes are journaled so that a call can be
// reverted to any checkpoint; Stage collects the surviving writes and
// Commit flushes them in a single bulk.
package state
