package logger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Logger filters messages by level and hands them to glog, which keeps the
// caller's file:line in every record.
type Logger struct {
	level  Level
	prefix string
}

// ParseLevel maps a level name to a Level. Unknown names fall back to INFO.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func New(level string) *Logger {
	return &Logger{level: ParseLevel(level)}
}

// Named returns a copy of the logger that prefixes every message with name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{level: l.level, prefix: l.prefix + "[" + name + "] "}
}

// Level returns the minimum level the logger emits.
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) output(lvl Level, format string, args ...interface{}) {
	if l.level > lvl {
		return
	}
	msg := l.prefix + fmt.Sprintf(format, args...)
	// depth 2 skips output and the exported method that called it
	switch lvl {
	case DEBUG:
		glog.InfoDepth(2, "[DEBUG] "+msg)
	case INFO:
		glog.InfoDepth(2, msg)
	case WARN:
		glog.WarningDepth(2, msg)
	default:
		glog.ErrorDepth(2, msg)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.output(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.output(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.output(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.output(ERROR, format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.output(DEBUG, format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.output(INFO, format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.output(WARN, format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.output(ERROR, format, args...)
}

// WithContext renders fields as "k=v" pairs in key order.
func (l *Logger) WithContext(ctx map[string]interface{}) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return strings.Join(parts, " ")
}

// Flush writes any buffered records. Worker processes call it before exiting.
func Flush() {
	glog.Flush()
}
