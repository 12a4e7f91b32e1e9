package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

// Logger provides optional verbose logging and lightweight timing helpers on
// top of zerolog. The zero value discards everything.
type Logger struct {
	zl      *zerolog.Logger
	Verbose bool
}

// New returns a logger writing JSON lines to writer. Verbosity 0 logs
// warnings, 1 info, 2 debug with caller information and anything higher
// trace. A nil writer yields a logger that discards everything.
func New(writer io.Writer, verbosity int) Logger {
	if writer == nil {
		return Logger{Verbose: verbosity > 0}
	}
	zl := zerolog.New(writer).With().Timestamp().Logger().Level(verbosityLevel(verbosity))
	if verbosity >= 2 {
		zl = zl.With().Caller().Logger()
	}
	return Logger{zl: &zl, Verbose: verbosity > 0}
}

// Setup builds the process logger: a console writer on stderr and, when it
// can be created, a log file under the XDG state directory. The returned
// close function releases the log file.
func Setup(verbosity int, console io.Writer) (Logger, func(), error) {
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}

	closeFn := func() {}
	logPath, pathErr := LogFilePath()
	var fileErr error
	if pathErr == nil {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			writers = append(writers, file)
			closeFn = func() { _ = file.Close() }
		} else {
			fileErr = fmt.Errorf("open log file: %w", err)
		}
	} else {
		fileErr = pathErr
	}

	logger := New(io.MultiWriter(writers...), verbosity)
	if fileErr != nil {
		logger.Warnf("Logging to console only: %v", fileErr)
	}
	logger.zl.Debug().Int("verbosity", verbosity).Str("logFile", logPath).Msg("Logger initialized")
	return logger, closeFn, nil
}

// LogFilePath returns the log file location, creating its directory.
func LogFilePath() (string, error) {
	return xdg.StateFile("junctionmirror/junctionmirror.log")
}

// With returns a logger that adds a string field to every entry.
func (l Logger) With(key, value string) Logger {
	if l.zl == nil {
		return l
	}
	child := l.zl.With().Str(key, value).Logger()
	return Logger{zl: &child, Verbose: l.Verbose}
}

func (l Logger) Infof(format string, args ...any) {
	if l.zl == nil {
		return
	}
	l.zl.Info().Msgf(format, args...)
}

func (l Logger) Warnf(format string, args ...any) {
	if l.zl == nil {
		return
	}
	l.zl.Warn().Msgf(format, args...)
}

func (l Logger) Verbosef(format string, args ...any) {
	if !l.Verbose || l.zl == nil {
		return
	}
	l.zl.Info().Msgf(format, args...)
}

// Measure returns a stop function that logs the elapsed time when called.
func (l Logger) Measure(label string) func() {
	if !l.Verbose || l.zl == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		l.zl.Info().
			Str("operation", label).
			Dur("duration", time.Since(start).Round(time.Millisecond)).
			Msg("Operation completed")
	}
}

func verbosityLevel(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
