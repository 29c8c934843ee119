package logtrace

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger sets up the global structured logger used by the servers.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// InitConsoleLogger sets up the global logger for command line tools. Progress
// goes to stdout in human readable form unless quiet is set; when logfile is
// non-nil every message is also written there.
func InitConsoleLogger(quiet bool, logfile io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	var writers []io.Writer
	if !quiet {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	if logfile != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: logfile, NoColor: true, TimeFormat: "2006-01-02 15:04:05"})
	}
	if len(writers) == 0 {
		log.Logger = zerolog.Nop()
		return
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}
