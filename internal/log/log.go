// Package log wires the component loggers used throughout the swarm node.
// Every call is a keyval structured log, the same convention probe/handler.go
// uses throughout go-probeum (log.Info("msg", "k", v, ...)).
package log

import (
	"os"

	"github.com/inconshreveable/log15"
)

// Logger is the interface every component depends on; satisfied by log15.Logger.
type Logger = log15.Logger

var root = log15.New()

func init() {
	root.SetHandler(log15.StreamHandler(os.Stderr, log15.TerminalFormat()))
}

// New derives a child logger with the given keyvals bound to its context,
// mirroring go-probeum's per-peer/per-component logger derivation.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// SetHandler replaces the root handler, used by cmd/quartznode to route to
// a file or adjust verbosity from configuration.
func SetHandler(h log15.Handler) {
	root.SetHandler(h)
}

func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
