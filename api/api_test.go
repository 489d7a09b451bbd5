// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rccstake/rccstake/builtin/rccstake"
	"github.com/rccstake/rccstake/lvldb"
	"github.com/rccstake/rccstake/metrics"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/runtime"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func newTestServer(t *testing.T) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rt, err := runtime.New(db, rcc.StakeContractAddress, rccstake.Current)
	require.NoError(t, err)

	owner := rcc.BytesToAddress([]byte("owner"))
	r, err := rt.Execute(owner, 10, "initialize", func(c *runtime.Call) error {
		if err := c.Contract.Initialize(rcc.BytesToAddress([]byte("rcc")), 100, 200, big.NewInt(10), nil); err != nil {
			return err
		}
		_, err := c.Contract.AddPool(rcc.BytesToAddress([]byte("stk")), 1, big.NewInt(1), 10)
		return err
	})
	require.NoError(t, err)
	require.False(t, r.Reverted)

	handler, closeFn := New(rt, Options{AllowedOrigins: "*", EnableMetrics: true, EnableReqLogger: true})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeFn()
		ts.Close()
	})
	return ts
}

func httpGet(t *testing.T, url string, header ...string) ([]byte, *http.Response) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res
}

func TestRoutes(t *testing.T) {
	ts := newTestServer(t)

	_, res := httpGet(t, ts.URL+"/pools")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_, res = httpGet(t, ts.URL+"/schedule")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	_, res = httpGet(t, ts.URL+"/pools/abc")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	_, res = httpGet(t, ts.URL+"/nowhere")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	_, res = httpGet(t, ts.URL+"/pools", "Origin", "http://example.com")
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware(t *testing.T) {
	ts := newTestServer(t)

	httpGet(t, ts.URL+"/pools")
	httpGet(t, ts.URL+"/pools/0")
	httpGet(t, ts.URL+"/pools/9")
	httpGet(t, ts.URL+"/pools/abc")

	body, res := httpGet(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, res.StatusCode)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	requests, ok := families["rccstake_metrics_api_request_count"]
	require.True(t, ok)

	seen := make(map[string]float64)
	for _, m := range requests.GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, http.MethodGet, labels["method"])
		seen[labels["name"]+" "+labels["code"]] += m.GetCounter().GetValue()
	}
	assert.GreaterOrEqual(t, seen["GET /pools 200"], float64(1))
	assert.GreaterOrEqual(t, seen["GET /pools/{id} 200"], float64(1))
	assert.GreaterOrEqual(t, seen["GET /pools/{id} 404"], float64(1))
	assert.GreaterOrEqual(t, seen["GET /pools/{id} 400"], float64(1))

	_, ok = families["rccstake_metrics_runtime_calls_count"]
	assert.True(t, ok)
	_, ok = families["rccstake_metrics_api_duration_ms"]
	assert.True(t, ok)
}
