// Package logging sets up the run log. Every invocation writes a full
// structured log to a timestamped file under the system temp directory
// so a failed deployment can be diagnosed after the fact; the console
// stays reserved for the wizard and progress output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// now is swappable so tests get stable file names.
var now = time.Now

// Setup opens the run-log file and returns a logger writing to it,
// along with the file path for the "full log at ..." hint. When the
// file cannot be created the logger falls back to stderr rather than
// failing the run.
func Setup(verbose bool) (zerolog.Logger, string) {
	zerolog.TimeFieldFormat = time.RFC3339

	path := filepath.Join(os.TempDir(), fmt.Sprintf("teamcache-setup-%s.log", now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Warn().Err(err).Msg("cannot open run log, logging to stderr")
		return log, ""
	}

	var w io.Writer = f
	if verbose {
		w = io.MultiWriter(f, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), path
}
