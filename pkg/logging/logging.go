package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Settings struct {
	Level      string
	Format     string
	WithCaller bool
	// File receives the log while the terminal is owned by the UI. Empty
	// means stderr.
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel converts a string level into a zerolog.Level, defaulting to
// info for empty or unknown values.
func ParseLevel(s string) zerolog.Level {
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s))); err == nil && l != zerolog.NoLevel {
		return l
	}
	return zerolog.InfoLevel
}

// Init configures the global zerolog logger. The returned closer flushes
// and closes the log file, if any.
func Init(s Settings) (io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if s.File != "" {
		lj := &lumberjack.Logger{
			Filename:   s.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		// surface permission problems now instead of on the first write
		if _, err := lj.Write(nil); err != nil {
			return nil, errors.Wrapf(err, "open log file %s", s.File)
		}
		out, closer = lj, lj
	}
	log.Logger = New(out, s)
	zerolog.SetGlobalLevel(ParseLevel(s.Level))
	return closer, nil
}

// New builds a logger writing to w without touching global state.
func New(w io.Writer, s Settings) zerolog.Logger {
	if s.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: s.File != "", TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(w).With().Timestamp()
	if s.WithCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}
