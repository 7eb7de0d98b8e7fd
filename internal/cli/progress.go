package cli

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/stencil-labs/stencil/internal/pkgcache"
)

// progress reports long-running cache operations through the logger.
func progress(logger *log.Logger) pkgcache.ProgressFunc {
	return func(msg string) func(error) {
		start := time.Now()
		logger.Info(msg + "...")
		return func(err error) {
			if err != nil {
				logger.Error(msg+" failed", "err", err)
				return
			}
			logger.Info(msg+" done", "took", time.Since(start).Round(time.Millisecond))
		}
	}
}
