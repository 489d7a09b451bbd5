// Copyright (c) 2025 The RCCStake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Levels, in the legacy verbosity numbering used by the --verbosity flag.
const (
	LvlCrit  = 0
	LvlError = 1
	LvlWarn  = 2
	LvlInfo  = 3
	LvlDebug = 4
	LvlTrace = 5
)

// Logger writes key/value pairs to the installed handler.
type Logger interface {
	With(ctx ...any) Logger
	Enabled(ctx context.Context, level slog.Level) bool

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

// contextLogger resolves the root logger on every write, so that loggers
// created in package vars follow a handler installed later by the binary.
type contextLogger struct {
	ctx []any
}

// WithContext returns a logger that prefixes every record with ctx.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &contextLogger{}
}

func (l *contextLogger) logger() ethlog.Logger {
	if len(l.ctx) == 0 {
		return ethlog.Root()
	}
	return ethlog.Root().With(l.ctx...)
}

func (l *contextLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &contextLogger{ctx: append(merged, ctx...)}
}

func (l *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger().Enabled(ctx, level)
}

func (l *contextLogger) Trace(msg string, ctx ...any) { l.logger().Trace(msg, ctx...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { l.logger().Debug(msg, ctx...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { l.logger().Info(msg, ctx...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { l.logger().Warn(msg, ctx...) }
func (l *contextLogger) Error(msg string, ctx ...any) { l.logger().Error(msg, ctx...) }
func (l *contextLogger) Crit(msg string, ctx ...any)  { l.logger().Crit(msg, ctx...) }

// SetDefault installs h as the root handler.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Discard silences all loggers.
func Discard() {
	SetDefault(ethlog.DiscardHandler())
}

// NewTerminalHandler creates a glog style handler writing human readable records to w.
// Verbosity uses the legacy numbering (0 crit ... 5 trace), vmodule the glog pattern syntax.
func NewTerminalHandler(w io.Writer, useColor bool, verbosity int, vmodule string) (slog.Handler, error) {
	handler := ethlog.NewGlogHandler(ethlog.NewTerminalHandler(w, useColor))
	handler.Verbosity(ethlog.FromLegacyLevel(verbosity))
	if vmodule != "" {
		if err := handler.Vmodule(vmodule); err != nil {
			return nil, err
		}
	}
	return handler, nil
}

// UseColor reports whether the file is a terminal that accepts colour codes.
func UseColor(f *os.File) bool {
	return (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
}
