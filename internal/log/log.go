// Package log wraps the standard logger with an optional rotating log file
// and a debug level that is off unless verbose output is requested.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var verbose atomic.Bool

// Options configures the process-wide logger
type Options struct {
	File    string
	Verbose bool
	// Output defaults to os.Stderr
	Output io.Writer
}

// Setup points the standard logger at stderr and, when File is set, at a
// rotating log file as well. The returned closer releases the file.
func Setup(opts Options) (io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	verbose.Store(opts.Verbose)

	if opts.File == "" {
		log.SetOutput(out)
		log.SetFlags(log.LstdFlags)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(out, rotating))
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	return rotating, nil
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	log.Output(2, fmt.Sprintf(format, v...))
}

// Fatal calls the standard log.Fatal()
func Fatal(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}

// Debugf logs with a [DEBUG] prefix when verbose output is on
func Debugf(format string, v ...interface{}) {
	if verbose.Load() {
		log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
	}
}
