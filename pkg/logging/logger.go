// Package logging provides chkbit's logging facilities. It follows the
// prefix-composing sublogger design used throughout the Mutagen codebase,
// adapted to a single configurable level (rather than a process-wide debug
// flag) since chkbit has no daemon process whose verbosity needs to be
// toggled at runtime.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end
// of a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It respects any flags set
// for the standard log package. It is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level controls which severities are emitted.
	level Level
}

// RootLogger is the root logger from which all other loggers derive. Its
// level defaults to LevelInfo and is adjusted by the CLI layer based on
// --log-verbose.
var RootLogger = &Logger{level: LevelInfo}

// SetLevel adjusts the logger's level. It is a no-op on a nil logger.
func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.level = level
	}
}

// Sublogger creates a new sublogger with the specified name, inheriting the
// parent's level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}

	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	return &Logger{
		prefix: prefix,
		level:  l.level,
	}
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Error logs error information, always (unless the logger is disabled).
func (l *Logger) Error(v ...interface{}) {
	if l != nil && l.level >= LevelError {
		l.output(3, fmt.Sprint(v...))
	}
}

// Errorf logs error information with Printf semantics.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l != nil && l.level >= LevelError {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Warn logs a warning, if warnings are enabled.
func (l *Logger) Warn(v ...interface{}) {
	if l != nil && l.level >= LevelWarn {
		l.output(3, fmt.Sprint(v...))
	}
}

// Warnf logs a warning with Printf semantics.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l != nil && l.level >= LevelWarn {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Info logs basic execution information, if enabled.
func (l *Logger) Info(v ...interface{}) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof logs basic execution information with Printf semantics.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l != nil && l.level >= LevelInfo {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs advanced execution information, if enabled.
func (l *Logger) Debug(v ...interface{}) {
	if l != nil && l.level >= LevelDebug {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf logs advanced execution information with Printf semantics.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l != nil && l.level >= LevelDebug {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Writer returns an io.Writer that writes lines using Debug. It's used to
// adapt the logger to APIs that want a writer, such as capturing stray
// diagnostic output from index I/O.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &writer{
		callback: func(s string) {
			l.Debug(s)
		},
	}
}
