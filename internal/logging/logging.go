// Package logging builds the CLI's leveled logger. Components receive the
// logger explicitly; there is no package-level logger to configure.
package logging

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/branding"
)

// New returns a logger writing to w. Debug enables debug-level output and
// caller reporting; otherwise only info and above are shown.
func New(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          branding.CLIName(),
		ReportTimestamp: false,
		ReportCaller:    debug,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// Discard returns a logger that drops everything. Used as the default when
// a component is built without a logger.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
