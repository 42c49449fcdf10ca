// Package logging configures the structured logger used throughout the
// driver and engine, following the zap field-logging idiom seen across the
// retrieved pack (store/region fields on every log line rather than
// formatted strings).
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap.Logger for the given rank. Production encoding (JSON) is
// used unless debug is set, in which case the development console encoder
// is used instead for local runs.
func New(rank int, debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		// There is no logger yet to report this through, so this is the one
		// place in the codebase that falls back to a bare panic.
		panic(fmt.Sprintf("logging: failed to build zap logger: %v", err))
	}
	return logger.With(zap.Int("rank", rank))
}

// FatalInit logs an initialization failure and aborts the process. Ranks
// are goroutines of the same process, so Logger.Fatal's exit ends every
// rank with it.
func FatalInit(logger *zap.Logger, phase string, err error) {
	logger.Fatal("initialization failed", zap.String("phase", phase), zap.Error(err))
}
