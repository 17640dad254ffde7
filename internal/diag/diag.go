// Package diag provides the opt-in verbose diagnostics logger.
package diag

import (
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// New returns the pipeline diagnostics logger. Without verbose the logger is
// disabled entirely; with verbose it writes human-readable events to stderr,
// dropping color when NO_COLOR is set or stderr is not a terminal.
func New(verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		NoColor:    os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd())),
	}
	return zerolog.New(consoleWriter).With().Timestamp().Logger()
}
