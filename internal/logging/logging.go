// Package logging configures the process-wide logger. Output goes to stderr
// so MCP stdio framing on stdout stays clean.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level (debug, info, warn, error).
// An empty or unknown level means info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
