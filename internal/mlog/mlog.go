// Package mlog provides the small structured logger mog's commands and
// pipelines write diagnostics through, instead of ad hoc fmt.Fprintln calls.
package mlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level controls verbosity.
type Level int32

const (
	LevelQuiet Level = iota
	LevelInfo
	LevelDebug
)

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
	if os.Getenv("MOG_LOG") == "debug" {
		level.Store(int32(LevelDebug))
	}
}

// SetLevel changes the active log level (e.g. from a -v CLI flag).
func SetLevel(l Level) { level.Store(int32(l)) }

var std = log.New(os.Stderr, "", 0)

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) { std.SetOutput(w) }

// Info logs a key=value formatted line at LevelInfo.
func Info(msg string, kv ...any) {
	if Level(level.Load()) >= LevelInfo {
		std.Print(format(msg, kv...))
	}
}

// Debug logs a key=value formatted line at LevelDebug.
func Debug(msg string, kv ...any) {
	if Level(level.Load()) >= LevelDebug {
		std.Print(format(msg, kv...))
	}
}

// Warn always logs, regardless of level; used for recoverable per-file
// failures during walk phases (§4.6/§4.7's "logged to stderr, file skipped").
func Warn(msg string, kv ...any) {
	std.Print("warn: " + format(msg, kv...))
}

func format(msg string, kv ...any) string {
	if len(kv) == 0 {
		return msg
	}
	s := msg
	for i := 0; i+1 < len(kv); i += 2 {
		s += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	return s
}
