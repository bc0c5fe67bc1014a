// Package logctx builds the shared controller-side logger.
package logctx

import (
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger configured the same way across both CLI entry
// points: timestamps on, caller off, level from the TIDELINE_LOG env var.
func New(component string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          component,
	})
	if lvl, err := log.ParseLevel(os.Getenv("TIDELINE_LOG")); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return l
}
