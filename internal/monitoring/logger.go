// Package monitoring holds the process-wide diagnostic logger shared by the
// packages that have no per-package log streams of their own.
package monitoring

import (
	"bytes"
	"io"
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Writer returns an io.Writer that forwards each complete line to Logf with
// prefix prepended. Partial lines are held until the newline arrives.
func Writer(prefix string) io.Writer {
	return &lineWriter{prefix: prefix}
}

type lineWriter struct {
	mu     sync.Mutex
	prefix string
	buf    []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		Logf("%s%s", w.prefix, line)
	}
	return len(p), nil
}
