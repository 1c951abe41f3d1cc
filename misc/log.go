package misc

import (
	"os"

	"github.com/BrugadaSyndrome/bslogger"
)

// NewLogger returns a named logger. Verbose loggers include debug output. A non-nil logFile receives a plain copy
// of every line.
func NewLogger(name string, verbose bool, logFile *os.File) bslogger.Logger {
	if verbose {
		return bslogger.NewLogger(name, bslogger.All, logFile)
	}
	return bslogger.NewLogger(name, bslogger.Normal, logFile)
}
