// Package term holds the process-wide color decision and a small ANSI
// palette for the banner. Log coloring itself is done by zerolog's console
// writer, which receives the decision from [Configure].
package term

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/backmassage/framestamp/internal/config"
	"github.com/mattn/go-isatty"
)

// Palette entries. Colorize drops them when colors are off.
const (
	Magenta = "\033[1;95m"
	Cyan    = "\033[1;96m"
	reset   = "\033[0m"
)

var enabled atomic.Bool

// Configure resolves mode against stdout and the environment, records the
// result for [Colorize], and returns it.
func Configure(mode config.ColorMode) bool {
	on := Resolve(mode, os.Stdout)
	enabled.Store(on)
	return on
}

// Enabled reports the last [Configure] result.
func Enabled() bool { return enabled.Load() }

// Colorize wraps s in color when colors are enabled.
func Colorize(color, s string) string {
	if color == "" || !enabled.Load() {
		return s
	}
	return color + s + reset
}

// Resolve decides colors for out. Auto mode needs a TTY and honors NO_COLOR
// (https://no-color.org) and TERM=dumb.
func Resolve(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(out)
}

// IsTerminal reports whether f is a terminal, including Cygwin/MSYS ptys.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
