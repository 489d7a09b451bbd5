// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the noop test must run before prometheus is installed, tests run in source order
func TestNoopMetrics(t *testing.T) {
	assert.Nil(t, HTTPHandler())

	Counter("noop_count").Add(1)
	CounterVec("noop_count_vec", []string{"method"}).AddWithLabel(1, map[string]string{"not": "checked"})
	Gauge("noop_gauge").Set(3)
	GaugeVec("noop_gauge_vec", []string{"pool"}).SetWithLabel(1, map[string]string{"pool": "0"})
	Histogram("noop_hist", nil).Observe(10)
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	count := LazyLoadCounter("count1")
	count().Add(2)
	assert.Same(t, count(), count())

	CounterVec("calls", []string{"method", "status"}).
		AddWithLabel(1, map[string]string{"method": "deposit", "status": "ok"})
	GaugeVec("pool_total_staked", []string{"pool"}).
		SetWithLabel(42, map[string]string{"pool": "0"})
	Gauge("gauge1").Add(5)
	Histogram("hist1", BucketHTTPReqs).Observe(3)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `rccstake_metrics_count1 2`))
	assert.True(t, strings.Contains(text, `rccstake_metrics_calls{method="deposit",status="ok"} 1`))
	assert.True(t, strings.Contains(text, `rccstake_metrics_pool_total_staked{pool="0"} 42`))
	assert.True(t, strings.Contains(text, `rccstake_metrics_gauge1 5`))
	assert.True(t, strings.Contains(text, `rccstake_metrics_hist1_count 1`))
}
