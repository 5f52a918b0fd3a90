// Package logging provides the process-wide log sink shared by all workers.
//
// Callers never write to the terminal directly: every call enqueues one
// immutable event on a buffered channel and a single writer goroutine
// renders events in arrival order through zerolog. Each event is written
// whole, so lines from concurrent workers never interleave.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/backmassage/framestamp/internal/config"
	"github.com/backmassage/framestamp/internal/term"
)

const (
	levelInfo    = "info"
	levelSuccess = "success"
	levelWarn    = "warn"
	levelError   = "error"
	levelDebug   = "debug"
)

// TimeFormat is the console timestamp layout.
const TimeFormat = "2006-01-02 15:04:05"

const defaultBuffer = 256

var levelColors = map[string]string{
	levelInfo:    "\033[1;94m",
	levelSuccess: "\033[1;92m",
	levelWarn:    "\033[1;93m",
	levelError:   "\033[1;91m",
	levelDebug:   "\033[1;96m",
}

type event struct {
	level string
	text  string
	at    time.Time
}

// Options configures a Logger. Zero-value writers default to os.Stdout and
// os.Stderr.
type Options struct {
	Color   bool
	Verbose bool
	File    string // Optional JSON log file, opened for append.
	Stdout  io.Writer
	Stderr  io.Writer
	Buffer  int // Event queue capacity; default 256.
}

// Logger is a leveled, concurrency-safe log sink. Call Close when done so
// queued events are flushed and the log file is closed.
type Logger struct {
	events chan event
	done   chan struct{}

	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool

	verbose  bool
	warnings atomic.Int64

	stdout  zerolog.Logger
	stderr  zerolog.Logger
	file    *os.File
	fileLog zerolog.Logger
}

// NewLogger builds a Logger from the run configuration: it resolves the
// color mode and opens cfg.LogFile when set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return New(Options{
		Color:   term.Configure(cfg.ColorMode),
		Verbose: cfg.Verbose,
		File:    cfg.LogFile,
	})
}

// New starts the writer goroutine and returns a ready Logger.
func New(opts Options) (*Logger, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}

	l := &Logger{
		events:  make(chan event, opts.Buffer),
		done:    make(chan struct{}),
		verbose: opts.Verbose,
		stdout:  zerolog.New(consoleWriter(opts.Stdout, opts.Color)),
		stderr:  zerolog.New(consoleWriter(opts.Stderr, opts.Color)),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		l.fileLog = zerolog.New(f)
	}

	go l.run()
	return l, nil
}

func consoleWriter(out io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         out,
		NoColor:     !color,
		TimeFormat:  TimeFormat,
		FormatLevel: formatLevel(color),
	}
}

// formatLevel renders the level column as "[INFO]", colored per level.
func formatLevel(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		name, _ := i.(string)
		label := "[" + strings.ToUpper(name) + "]"
		if !color {
			return label
		}
		return levelColors[name] + label + "\033[0m"
	}
}

// run is the single writer. It exits once Close has closed the queue and
// every queued event has been written.
func (l *Logger) run() {
	defer close(l.done)
	for ev := range l.events {
		out := &l.stdout
		if ev.level == levelError {
			out = &l.stderr
		}
		out.Log().
			Time(zerolog.TimestampFieldName, ev.at).
			Str(zerolog.LevelFieldName, ev.level).
			Msg(ev.text)
		if l.file != nil {
			l.fileLog.Log().
				Time(zerolog.TimestampFieldName, ev.at).
				Str(zerolog.LevelFieldName, ev.level).
				Msg(ev.text)
		}
	}
}

func (l *Logger) emit(level, format string, args ...interface{}) {
	ev := event{level: level, text: fmt.Sprintf(format, args...), at: time.Now()}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	if level == levelWarn {
		l.warnings.Add(1)
	}
	l.events <- ev
}

// Close stops accepting events, waits for the writer to drain the queue, and
// closes the log file if one was opened. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()

	<-l.done
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Warnings returns how many WARN events have been accepted so far.
func (l *Logger) Warnings() int {
	return int(l.warnings.Load())
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(levelInfo, format, args...)
}

// Success logs at SUCCESS level.
func (l *Logger) Success(format string, args ...interface{}) {
	l.emit(levelSuccess, format, args...)
}

// Warn logs at WARN level and counts toward Warnings.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(levelWarn, format, args...)
}

// Error logs at ERROR level, to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(levelError, format, args...)
}

// Debug logs at DEBUG level only when the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.emit(levelDebug, format, args...)
}
