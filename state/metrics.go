// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/rccstake/rccstake/metrics"

var (
	metricCacheHits   = metrics.LazyLoadCounter("state_cache_hits_count")
	metricCacheMisses = metrics.LazyLoadCounter("state_cache_misses_count")
)
