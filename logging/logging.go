// Package logging holds the process-wide zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

var (
	base = zap.NewNop()
	log  = base.Sugar()
)

// Init replaces the no-op default with a development (debug) or production
// logger.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		l, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	base = l
	log = l.Sugar()
	return nil
}

// Logger returns the underlying zap logger.
func Logger() *zap.Logger { return base }

// Sync flushes buffered entries.
func Sync() { _ = log.Sync() }

func Debugw(msg string, keysAndValues ...any) { log.Debugw(msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...any)  { log.Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { log.Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...any) { log.Errorw(msg, keysAndValues...) }
