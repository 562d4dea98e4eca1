// Package logger prints timestamped, colored log lines to stdout/stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
	debug  bool

	gray   = color.New(color.FgHiBlack)
	blue   = color.New(color.FgBlue)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	purple = color.New(color.FgMagenta)
	cyan   = color.New(color.FgCyan)
)

// SetOutput redirects both streams, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	errOut = w
}

// SetDebug turns Debug lines on or off. They are off by default.
func SetDebug(on bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = on
}

func write(w io.Writer, c *color.Color, prefix, message string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	ts := gray.Sprintf("[%s]", time.Now().Format("15:04:05"))
	fmt.Fprintf(w, "%s %s\n", ts, c.Sprint(prefix+fmt.Sprintf(message, args...)))
}

func Info(message string, args ...interface{}) {
	write(out, blue, "", message, args...)
}

func Success(message string, args ...interface{}) {
	write(out, green, "✓ ", message, args...)
}

func Warning(message string, args ...interface{}) {
	write(out, yellow, "⚠ ", message, args...)
}

func Error(message string, args ...interface{}) {
	write(errOut, red, "✗ ", message, args...)
}

func Debug(message string, args ...interface{}) {
	mu.Lock()
	on := debug
	mu.Unlock()
	if on {
		write(out, gray, "DEBUG: ", message, args...)
	}
}

// Request logs one HTTP exchange, colored by status class.
func Request(method, path string, statusCode int, duration time.Duration) {
	var status *color.Color
	switch {
	case statusCode >= 500:
		status = red
	case statusCode >= 400:
		status = yellow
	case statusCode >= 300:
		status = cyan
	default:
		status = green
	}

	var d string
	switch {
	case duration < time.Millisecond:
		d = fmt.Sprintf("%dµs", duration.Microseconds())
	case duration < time.Second:
		d = fmt.Sprintf("%dms", duration.Milliseconds())
	default:
		d = fmt.Sprintf("%.2fs", duration.Seconds())
	}

	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %s %-50s %s %s\n",
		gray.Sprintf("[%s]", time.Now().Format("15:04:05")),
		purple.Sprintf("%-6s", method),
		path,
		status.Sprintf("[%d]", statusCode),
		gray.Sprintf("(%s)", d),
	)
}
