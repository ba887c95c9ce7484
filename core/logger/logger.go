// Package logger records interpreter session events in newline delimited
// JSON, one entry per dispatched command, child result or diagnostic.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"
)

// LogEntry is one recorded event. Exactly one of the event fields is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	Command     *CommandEvent     `json:"command,omitempty"`
	ChildResult *ChildResultEvent `json:"child_result,omitempty"`
	Diagnostic  *DiagnosticEvent  `json:"diagnostic,omitempty"`
}

// CommandEvent records one dispatched word vector.
type CommandEvent struct {
	Argv []string `json:"argv"`
	// Builtin is true when the command was handled by the interpreter
	// itself rather than a child process.
	Builtin bool `json:"builtin,omitempty"`
}

// ChildResultEvent records how a launched child terminated.
type ChildResultEvent struct {
	Program  string `json:"program"`
	ExitCode int    `json:"exit_code"`
	Signal   string `json:"signal,omitempty"`
}

// DiagnosticEvent records a recoverable error shown to the user.
type DiagnosticEvent struct {
	Message string `json:"message"`
}

// Event is anything that can occupy a LogEntry's event slot.
type Event interface {
	attach(le *LogEntry)
}

func (e *CommandEvent) attach(le *LogEntry)     { le.Command = e }
func (e *ChildResultEvent) attach(le *LogEntry) { le.ChildResult = e }
func (e *DiagnosticEvent) attach(le *LogEntry)  { le.Diagnostic = e }

// LogRecorder is a callback that stores entries in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures session event logs.
type Logger struct {
	Record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := json.Marshal(le)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// SessionLogger logs events with a shared session ID. A nil SessionLogger
// discards everything, so callers don't need to guard each call site.
type SessionLogger struct {
	*Logger
	sessionID string
}

// Record stores one event, best effort.
func (l *SessionLogger) Record(event Event) error {
	if l == nil {
		return nil
	}
	le := &LogEntry{
		TimestampMicros: time.Now().UnixMicro(),
		SessionID:       l.sessionID,
	}
	event.attach(le)
	return l.Logger.Record(le)
}
