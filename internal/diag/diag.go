// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package diag provides stage-tagged, levelled logging for the sender and
// receiver state machines.
//
// Modeled on ossrs-go-oryx-lib's logger package: package-global levelled
// loggers built on *log.Logger, each call taking an optional context. Here
// the context is the protocol stage a message pertains to ("handshake",
// "data recv", "bitmap send", ...) rather than a connection id, matching
// the diagnostic requirement in the protocol's error handling design: every
// failure names the stage that produced it.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	traceLabel = "[trace] "
	warnLabel  = "[warn] "
	errorLabel = "[error] "
)

// Logger is the interface both Sender and Receiver log through.
type Logger interface {
	// Tracef logs a routine state transition tagged with stage.
	Tracef(stage, format string, args ...interface{})
	// Warnf logs a recoverable anomaly tagged with stage.
	Warnf(stage, format string, args ...interface{})
	// Errorf logs the stage and cause of a fatal transition.
	Errorf(stage, format string, args ...interface{})
}

type stdLogger struct {
	trace *log.Logger
	warn  *log.Logger
	err   *log.Logger
}

func (l *stdLogger) Tracef(stage, format string, args ...interface{}) {
	l.trace.Println(tag(stage, format, args...))
}

func (l *stdLogger) Warnf(stage, format string, args ...interface{}) {
	l.warn.Println(tag(stage, format, args...))
}

func (l *stdLogger) Errorf(stage, format string, args ...interface{}) {
	l.err.Println(tag(stage, format, args...))
}

func tag(stage, format string, args ...interface{}) string {
	return fmt.Sprintf("[%s] %s", stage, fmt.Sprintf(format, args...))
}

func newStdLogger(w io.Writer) *stdLogger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds
	return &stdLogger{
		trace: log.New(w, traceLabel, flags),
		warn:  log.New(w, warnLabel, flags),
		err:   log.New(w, errorLabel, flags),
	}
}

var std = newStdLogger(os.Stderr)

// Default returns the package's default Logger, writing to os.Stderr.
func Default() Logger { return std }

// Discard is a Logger that drops every message; useful for quiet tests.
var Discard Logger = newStdLogger(io.Discard)

// Switch redirects the default logger's output, mirroring oryx logger's
// Switch: callers that want file-based logging call this once at startup.
// The Logger returned by Default is updated in place, so sessions holding
// it also log to w from then on.
func Switch(w io.Writer) {
	*std = *newStdLogger(w)
}
