// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rccstake/rccstake/abi"
	"github.com/rccstake/rccstake/api/subscriptions"
	"github.com/rccstake/rccstake/builtin/rccstake"
	"github.com/rccstake/rccstake/config"
	"github.com/rccstake/rccstake/log"
	"github.com/rccstake/rccstake/lvldb"
	"github.com/rccstake/rccstake/metrics"
	"github.com/rccstake/rccstake/rcc"
	"github.com/rccstake/rccstake/runtime"
	"github.com/rccstake/rccstake/tx"
)

func initLogger(ctx *cli.Context) error {
	handler, err := log.NewTerminalHandler(os.Stderr, log.UseColor(os.Stderr), ctx.GlobalInt(verbosityFlag.Name), ctx.GlobalString(vmoduleFlag.Name))
	if err != nil {
		return errors.WithMessage(err, "vmodule")
	}
	log.SetDefault(handler)
	return nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	var envFiles []string
	if f := ctx.GlobalString(envFileFlag.Name); f != "" {
		envFiles = append(envFiles, f)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	return cfg, nil
}

type node struct {
	cfg *config.Config
	db  *lvldb.LevelDB
	rt  *runtime.Runtime
}

func (n *node) Close() {
	n.rt.Close()
	if err := n.db.Close(); err != nil {
		logger.Warn("failed to close database", "err", err)
	}
}

// openNode sets up logging and metrics, then opens the ledger under <data-dir>/<network>.
func openNode(ctx *cli.Context) (*node, error) {
	if err := initLogger(ctx); err != nil {
		return nil, err
	}
	if ctx.GlobalBool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(cfg.DataDir, cfg.Network)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}
	db, err := lvldb.New(filepath.Join(dir, "main.db"), lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	rt, err := runtime.New(db, cfg.ContractAddress(), rccstake.Current)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("ledger opened", "dir", dir, "height", rt.Height(), "seq", rt.Seq())
	return &node{cfg: cfg, db: db, rt: rt}, nil
}

func callerAddress(ctx *cli.Context) (rcc.Address, error) {
	s := ctx.GlobalString(callerFlag.Name)
	if s == "" {
		return rcc.Address{}, errors.New("--caller is required")
	}
	return parseAddress(s)
}

func parseAddress(s string) (rcc.Address, error) {
	addr, err := rcc.ParseAddress(s)
	if err != nil {
		return rcc.Address{}, errors.WithMessagef(err, "invalid address %q", s)
	}
	return addr, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func parseUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return v, nil
}

func toUint32(v uint64) (uint32, error) {
	if v > 0xffffffff {
		return 0, errors.Errorf("%d out of range", v)
	}
	return uint32(v), nil
}

// args checks the positional argument count.
func args(ctx *cli.Context, names ...string) ([]string, error) {
	if ctx.NArg() != len(names) {
		return nil, errors.Errorf("expected arguments: %v", names)
	}
	return ctx.Args(), nil
}

// execute runs fn as the --caller at --height against the ledger and prints the receipt.
func execute(ctx *cli.Context, method string, fn func(c *runtime.Call) error) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	caller, err := callerAddress(ctx)
	if err != nil {
		return err
	}
	height, err := toUint32(ctx.GlobalUint64(heightFlag.Name))
	if err != nil {
		return err
	}
	receipt, err := n.rt.Execute(caller, height, method, fn)
	if err != nil {
		return err
	}
	return printReceipt(os.Stdout, receipt)
}

func printReceipt(w io.Writer, r *tx.Receipt) error {
	fmt.Fprintf(w, "#%d %s by %v at height %d\n", r.Seq, r.Method, r.Caller, r.Height)
	if r.Reverted {
		reason, err := abi.UnpackRevert(r.RevertData)
		if err != nil {
			reason = "unknown"
		}
		return errors.Errorf("reverted: %s", reason)
	}
	for _, ev := range r.Events {
		msg, err := subscriptions.NewEventMessage(r, ev)
		if err != nil {
			return err
		}
		data, err := json.Marshal(msg.Args)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s %s\n", msg.Name, data)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
