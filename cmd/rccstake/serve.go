// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rccstake/rccstake/api"
	"github.com/rccstake/rccstake/runtime"
)

// serveAction serves the API until an exit signal, optionally advancing the height on a timer.
func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing ledger..."); n.Close() }()

	addr := n.cfg.APIAddr
	if ctx.IsSet(apiAddrFlag.Name) {
		addr = ctx.String(apiAddrFlag.Name)
	}
	origins := n.cfg.AllowedOrigins
	if ctx.IsSet(apiCorsFlag.Name) {
		origins = ctx.String(apiCorsFlag.Name)
	}

	handler, closeSubs := api.New(n.rt, api.Options{
		AllowedOrigins:  origins,
		EnableMetrics:   ctx.GlobalBool(enableMetricsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	group, gctx := errgroup.WithContext(handleExitSignal())
	group.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping API server...")
		closeSubs()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if interval := ctx.Duration(blockIntervalFlag.Name); interval > 0 {
		group.Go(func() error {
			return produceHeights(gctx, n.rt, interval)
		})
	}

	logger.Info("API started", "url", "http://"+listener.Addr().String()+"/", "height", n.rt.Height())
	return group.Wait()
}

// produceHeights advances the height by one every interval until ctx is done.
func produceHeights(ctx context.Context, rt *runtime.Runtime, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			height := rt.Height() + 1
			if err := rt.Advance(height); err != nil {
				return err
			}
			logger.Debug("height advanced", "height", height)
		}
	}
}
