package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Setup builds the process logger. Terminals get the console writer,
// everything else gets JSON lines.
func Setup(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	out := w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(out).With().Timestamp().Logger().Level(level)
	mu.Lock()
	logger = l
	mu.Unlock()
	return l
}

// L returns the process logger.
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Log(level zerolog.Level, msg string, fields map[string]any) {
	l := L()
	l.WithLevel(level).Fields(fields).Msg(msg)
}

func Info(msg string, fields map[string]any)  { Log(zerolog.InfoLevel, msg, fields) }
func Debug(msg string, fields map[string]any) { Log(zerolog.DebugLevel, msg, fields) }
func Error(msg string, fields map[string]any) { Log(zerolog.ErrorLevel, msg, fields) }
