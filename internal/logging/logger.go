// Package logging provides the small structured-ish logger shared by every
// component of this service, in the style of activity-hub-common/logging.
package logging

import (
	"log"
	"os"
	"strings"
)

// Logger writes prefixed, leveled lines to stdout. context holds key=value
// pairs accumulated via With/WithGame/WithConnection and is rendered ahead
// of every message, so a handler deep in a call chain doesn't need to
// thread gameId/connectionId through every Warn/Error call by hand.
type Logger struct {
	component string
	context   []string
	logger    *log.Logger
}

// New creates a Logger for the named component.
//
//	logger := logging.New("ws-dispatcher")
//	logger.Info("dispatching action=%s game=%s", action, gameID)
func New(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stdout, "["+component+"] ", log.LstdFlags),
	}
}

// With returns a child Logger that prefixes every subsequent line with
// key=value, in addition to whatever context the receiver already carries.
func (l *Logger) With(key, value string) *Logger {
	if value == "" {
		return l
	}
	child := &Logger{component: l.component, logger: l.logger}
	child.context = append(append([]string{}, l.context...), key+"="+value)
	return child
}

// WithGame scopes a Logger to a game, for the admission/dispatch/disconnect
// call sites that already know gameId before anything can go wrong.
func (l *Logger) WithGame(gameID string) *Logger {
	return l.With("game", gameID)
}

// WithConnection scopes a Logger to a connection, layering on top of any
// game context the caller already attached.
func (l *Logger) WithConnection(connectionID string) *Logger {
	return l.With("connection", connectionID)
}

func (l *Logger) format(message string) string {
	if len(l.context) == 0 {
		return message
	}
	return "[" + strings.Join(l.context, " ") + "] " + message
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.logger.Printf("ℹ️  INFO: "+l.format(message), args...)
}

func (l *Logger) Error(message string, args ...interface{}) {
	l.logger.Printf("❌ ERROR: "+l.format(message), args...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.logger.Printf("⚠️  WARN: "+l.format(message), args...)
}

func (l *Logger) Debug(message string, args ...interface{}) {
	l.logger.Printf("🔍 DEBUG: "+l.format(message), args...)
}

func (l *Logger) Success(message string, args ...interface{}) {
	l.logger.Printf("✅ SUCCESS: "+l.format(message), args...)
}
