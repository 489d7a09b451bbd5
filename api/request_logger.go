// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"
)

// requestLoggerHandler logs every request at debug level.
func requestLoggerHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		handler.ServeHTTP(w, r)
		logger.Debug("api request",
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"remote", r.RemoteAddr,
			"elapsed", time.Since(start),
		)
	})
}
