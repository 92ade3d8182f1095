// Package log carries the logr based logging shared by both roles of
// an OT extension session and by the example binaries.
//
// Verbosity levels:
//  0  session failures and results
//  1  protocol stages and timings
//  2  per message tracing
package log

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// MaxVerbosity is the most detailed level the package logs at.
const MaxVerbosity = 2

// GetLogger returns a stdr backed logger named "otext" with the
// global stdr verbosity set to v. Out of range values fall back to 0.
func GetLogger(v int) logr.Logger {
	logger := stdr.New(nil).WithName("otext")
	if v > MaxVerbosity || v < 0 {
		v = 0
		logger.Info("Invalid verbosity, setting logger to display info level messages only.")
	}
	stdr.SetVerbosity(v)

	return logger
}

// ContextWithLogger returns a copy of ctx carrying logger, for use by
// BaseSetup and Extend.
func ContextWithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// ForRole returns the logger carried by ctx tagged with the protocol
// and role, or a discarding logger.
func ForRole(ctx context.Context, role string) logr.Logger {
	return logr.FromContextOrDiscard(ctx).WithValues("protocol", "otext", "role", role)
}
