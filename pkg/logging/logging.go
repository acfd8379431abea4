// Package logging holds the process-wide loggers shared by the smartamr
// packages.
package logging

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	// Info reports progress. Silenced by SetQuiet.
	Info *log.Logger
	// Warn reports recoverable failures, e.g. a file that could not be fetched.
	Warn *log.Logger

	mu     sync.Mutex
	output io.Writer = os.Stderr
	quiet  bool
)

func init() {
	Info = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(os.Stderr, "WARN: ", log.Ldate|log.Ltime)
}

// SetOutput redirects both loggers to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	Warn.SetOutput(w)
	if !quiet {
		Info.SetOutput(w)
	}
}

// SetQuiet discards Info output when q is true.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
	if q {
		Info.SetOutput(io.Discard)
	} else {
		Info.SetOutput(output)
	}
}
