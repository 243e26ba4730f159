package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatPretty  = "pretty"
	FormatJSON    = "json"
)

// Init configures the global logger. Unknown levels fall back to info.
func Init(level, format string) {
	initWriter(os.Stderr, level, format)
}

func initWriter(w io.Writer, level, format string) {
	var lvl, err = zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var output = w
	switch strings.ToLower(format) {
	case FormatConsole, FormatPretty:
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
}
