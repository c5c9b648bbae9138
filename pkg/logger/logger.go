// Package logger is a tiny wrapper on top of the standard log.Logger that
// produces lines in the style of classic daemon logs:
//
//	dhcpd-lease-report[PID]: 2006-01-02 15:04:05 INFO <Message>
//
// so the serve-mode output lines up with what dhcpd itself writes to syslog.
package logger

import (
	"fmt"
	"log"
	"os"
	"time"
)

type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	FATAL LogLevel = "FATAL"
)

type CustomLogger struct {
	logger  *log.Logger
	pid     int
	prefix  string
	verbose bool
}

func NewCustomLogger(prefix string) *CustomLogger {
	return &CustomLogger{
		logger: log.New(os.Stdout, "", 0), // no flags, the timestamp is added manually
		pid:    os.Getpid(),
		prefix: prefix,
	}
}

// SetVerbose enables DEBUG-level output.
func (l *CustomLogger) SetVerbose(v bool) {
	l.verbose = v
}

func (l *CustomLogger) Log(level LogLevel, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("%s[%d]: %s %s %s", l.prefix, l.pid, timestamp, level, message)
}

// Debug logs only when verbose mode is enabled.
func (l *CustomLogger) Debug(message string) {
	if l.verbose {
		l.Log(DEBUG, message)
	}
}

// Debugf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Debugf(format string, v ...any) {
	if l.verbose {
		l.Log(DEBUG, fmt.Sprintf(format, v...))
	}
}

// Info
func (l *CustomLogger) Info(message string) {
	l.Log(INFO, message)
}

// Infof
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Infof(format string, v ...any) {
	l.Info(fmt.Sprintf(format, v...))
}

// Warn
func (l *CustomLogger) Warn(message string) {
	l.Log(WARN, message)
}

// Warnf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Warnf(format string, v ...any) {
	l.Warn(fmt.Sprintf(format, v...))
}

// Fatal logs the message and terminates the process.
func (l *CustomLogger) Fatal(s string) {
	l.Log(FATAL, s)
	os.Exit(1)
}

// Fatalf
// Arguments are handled in the manner of [fmt.Printf].
func (l *CustomLogger) Fatalf(format string, v ...any) {
	l.Fatal(fmt.Sprintf(format, v...))
}
