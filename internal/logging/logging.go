// Package logging configures zerolog for the secretary process. Components
// get child loggers tagged with a "component" field so log lines stay
// attributable when everything shares one stream.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var root zerolog.Logger

func init() {
	root = newLogger(os.Stderr, false, false)
}

// Setup reconfigures the process logger. json selects machine-readable
// output; debug lowers the level floor to Debug.
func Setup(json, debug bool) {
	root = newLogger(os.Stderr, json, debug)
}

func newLogger(out io.Writer, json, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if !json {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}
