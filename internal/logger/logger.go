package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger and installs it as the global logger used by package
// code. Development mode logs at debug level in console format.
func Setup(dev bool) zerolog.Logger {
	return setup(os.Stderr, dev)
}

func setup(out io.Writer, dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	return logger
}

// SetupConsole configures logging for interactive tools. Output is human readable and only
// warnings are shown unless debug is set.
func SetupConsole(debug bool) zerolog.Logger {
	return setupConsole(os.Stderr, debug)
}

func setupConsole(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).Level(level).With().Timestamp().Logger()

	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	return logger
}
