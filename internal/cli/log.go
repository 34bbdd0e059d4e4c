// Package cli implements the terraces command-line interface.
//
// Commands analyse a Newick supertree against a missing-data matrix, browse
// and render the resulting terrace, serve analyses over HTTP, and manage the
// result cache and the configuration file. The CLI is built using cobra and
// logs with charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - analyze: Run any combination of count, enumerate, detect and compress
//   - count, enumerate, detect, compress: Single-mode shortcuts
//   - browse: Scroll through the trees on a terrace
//   - render: Draw the rooted tree or its compressed terrace
//   - serve: HTTP API for analyses
//   - cache, config: Manage the result cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at the given level, with
// "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of a command stage with its elapsed time.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and a "duration" rounded to the millisecond,
// e.g. `Prepared tree=t.nwk root=s3 duration=12ms`.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "duration", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

// lap logs like done and restarts the clock for the next stage.
func (p *progress) lap(msg string, keyvals ...any) {
	p.done(msg, keyvals...)
	p.start = time.Now()
}

type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
