// Package diag is the process-wide textual diagnostic sink described in
// spec.md §6.2: a place operations write human-readable error descriptions
// and printed records to. It wraps a package-level *logrus.Logger the same
// way zhukovaskychina-xmysql-server's logger package wraps one.
package diag

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger = logrus.New()
	sink   io.Writer = os.Stdout
)

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: false,
	})
}

// SetOutput redirects both the log stream and the plain-text print sink.
// Tests use this to capture output instead of writing to the real stdio.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
	sink = w
}

// Sink returns the writer that PrintRecord and other plain-text output goes
// to. It is deliberately separate from the logrus stream: spec.md requires
// print_record's output to be the exact "name: value\t..." text, not a
// logrus-formatted line.
func Sink() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return sink
}

// Errorf logs a human-readable description of an operation failure. It does
// not itself return or wrap the error; callers still propagate the original
// error value.
func Errorf(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Errorf(format, args...)
}

// Infof logs an informational diagnostic, e.g. file tracker dumps.
func Infof(format string, args ...interface{}) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Infof(format, args...)
}
