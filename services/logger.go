package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects how entries are rendered
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var levelOrder = map[LogLevel]int32{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
}

// LogField represents a structured log field
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, err error, fields ...LogField)
	With(fields ...LogField) Logger
}

// logSink is shared by a logger and everything derived from it with With,
// so SetLevel on the root applies everywhere.
type logSink struct {
	mu     sync.Mutex
	output io.Writer
	format LogFormat
	level  atomic.Int32
}

// StructuredLogger implements Logger interface
type StructuredLogger struct {
	sink       *logSink
	baseFields map[string]interface{}
}

// NewStructuredLogger creates a new JSON structured logger
func NewStructuredLogger(level LogLevel, output io.Writer) *StructuredLogger {
	return newLogger(level, LogFormatJSON, output)
}

func newLogger(level LogLevel, format LogFormat, output io.Writer) *StructuredLogger {
	if output == nil {
		output = os.Stdout
	}
	if format != LogFormatText {
		format = LogFormatJSON
	}

	sink := &logSink{output: output, format: format}
	sink.level.Store(rank(level))

	return &StructuredLogger{
		sink:       sink,
		baseFields: make(map[string]interface{}),
	}
}

// SetLevel changes the minimum level for this logger and all loggers
// derived from it.
func (l *StructuredLogger) SetLevel(level LogLevel) {
	l.sink.level.Store(rank(level))
}

// Level reports the current minimum level
func (l *StructuredLogger) Level() LogLevel {
	current := l.sink.level.Load()
	for level, order := range levelOrder {
		if order == current {
			return level
		}
	}
	return LogLevelInfo
}

// Debug logs a debug message
func (l *StructuredLogger) Debug(msg string, fields ...LogField) {
	l.log(LogLevelDebug, msg, nil, fields...)
}

// Info logs an info message
func (l *StructuredLogger) Info(msg string, fields ...LogField) {
	l.log(LogLevelInfo, msg, nil, fields...)
}

// Warn logs a warning message
func (l *StructuredLogger) Warn(msg string, fields ...LogField) {
	l.log(LogLevelWarn, msg, nil, fields...)
}

// Error logs an error message
func (l *StructuredLogger) Error(msg string, err error, fields ...LogField) {
	l.log(LogLevelError, msg, err, fields...)
}

// With creates a new logger with additional base fields
func (l *StructuredLogger) With(fields ...LogField) Logger {
	newFields := make(map[string]interface{}, len(l.baseFields)+len(fields))
	for k, v := range l.baseFields {
		newFields[k] = v
	}
	for _, field := range fields {
		newFields[field.Key] = field.Value
	}

	return &StructuredLogger{
		sink:       l.sink,
		baseFields: newFields,
	}
}

func (l *StructuredLogger) log(level LogLevel, msg string, err error, fields ...LogField) {
	if rank(level) < l.sink.level.Load() {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
	}

	if len(l.baseFields)+len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(l.baseFields)+len(fields))
		for k, v := range l.baseFields {
			entry.Fields[k] = v
		}
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	if err != nil {
		entry.Error = err.Error()
	}

	var line string
	if l.sink.format == LogFormatText {
		line = formatText(entry)
	} else {
		data, marshalErr := json.Marshal(entry)
		if marshalErr != nil {
			log.Printf("Failed to marshal log entry: %v", marshalErr)
			log.Printf("[%s] %s: %v", level, msg, err)
			return
		}
		line = string(data)
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	fmt.Fprintln(l.sink.output, line)
}

// formatText renders an entry as a single logfmt-style line with sorted keys
func formatText(entry LogEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", entry.Timestamp, strings.ToUpper(string(entry.Level)), entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%q", entry.Error)
	}
	return b.String()
}

func rank(level LogLevel) int32 {
	if order, ok := levelOrder[level]; ok {
		return order
	}
	return levelOrder[LogLevelInfo]
}

// String field helper
func String(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// Int field helper
func Int(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// Int64 field helper
func Int64(key string, value int64) LogField {
	return LogField{Key: key, Value: value}
}

// Bool field helper
func Bool(key string, value bool) LogField {
	return LogField{Key: key, Value: value}
}

// Duration field helper
func Duration(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// Any field helper for arbitrary values
func Any(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// NewLoggerFromConfig creates a logger from configuration
func NewLoggerFromConfig(config *LoggerConfig) *StructuredLogger {
	if config == nil {
		return newLogger(LogLevelInfo, LogFormatJSON, nil)
	}

	level := config.Level
	if level == "" {
		level = LogLevelInfo
	}

	return newLogger(level, config.Format, config.Output)
}

// ParseLogLevel parses a log level string
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ParseLogFormat parses a log format string, defaulting to JSON
func ParseLogFormat(format string) LogFormat {
	if strings.ToLower(format) == string(LogFormatText) {
		return LogFormatText
	}
	return LogFormatJSON
}
