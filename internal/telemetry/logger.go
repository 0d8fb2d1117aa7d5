// Package telemetry provides the leveled, component-tagged logger used
// by the maintenance scheduler and the lifecycle shutdown coordinator — never by the
// bus hot path, which spec §7 requires to stay silent and let callers
// own retry/backoff decisions. Adapted from
// _examples/nmxmxh-inos_v1/kernel/utils/logger.go, with the syscall/js console bridge
// dropped: this module is native-only.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = map[Level]string{
	Debug: "DEBUG",
	Info:  "INFO",
	Warn:  "WARN",
	Error: "ERROR",
}

var levelColors = map[Level]string{
	Debug: "\033[36m",
	Info:  "\033[32m",
	Warn:  "\033[33m",
	Error: "\033[31m",
}

const colorReset = "\033[0m"

// Logger is a structured, component-tagged logger safe for concurrent
// use from the maintenance scheduler's background goroutine and any
// diagnostics call that runs alongside it.
type Logger struct {
	mu         sync.Mutex
	level      Level
	component  string
	output     io.Writer
	colorize   bool
	timeFormat string
}

type Config struct {
	Level      Level
	Component  string
	Output     io.Writer
	Colorize   bool
	TimeFormat string
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "15:04:05.000"
	}
	return &Logger{
		level:      cfg.Level,
		component:  cfg.Component,
		output:     cfg.Output,
		colorize:   cfg.Colorize,
		timeFormat: cfg.TimeFormat,
	}
}

// Default returns a logger with sensible defaults for the named
// component, mirroring utils.DefaultLogger.
func Default(component string) *Logger {
	return New(Config{
		Level:      Info,
		Component:  component,
		Output:     os.Stdout,
		Colorize:   true,
		TimeFormat: "15:04:05.000",
	})
}

// Field is a structured key-value pair appended to a log line.
type Field struct {
	Key   string
	Value interface{}
}

func (f Field) format() string {
	switch v := f.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	case time.Duration:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func (l *Logger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var b strings.Builder
	if l.colorize {
		b.WriteString(levelColors[level])
	}
	b.WriteString("[")
	b.WriteString(time.Now().Format(l.timeFormat))
	b.WriteString("] [")
	b.WriteString(fmt.Sprintf("%-5s", levelNames[level]))
	b.WriteString("] ")
	if l.component != "" {
		b.WriteString("[")
		b.WriteString(l.component)
		b.WriteString("] ")
	}
	b.WriteString(msg)
	for _, field := range fields {
		b.WriteString(" ")
		b.WriteString(field.Key)
		b.WriteString("=")
		b.WriteString(field.format())
	}
	if l.colorize {
		b.WriteString(colorReset)
	}
	b.WriteString("\n")
	l.output.Write([]byte(b.String()))
}
