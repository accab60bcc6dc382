// Package console writes translation runtime logs as single logfmt-style
// lines. The record subject (model_type, model_id, locale) is printed right
// after the message so sync and purge entries line up when scanning output.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/pkg/interfaces"
)

// Level represents the severity attached to a log entry.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a configured level name to a Level. Unknown names and the
// empty string resolve to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

// subjectKeys are rendered first, in this order, ahead of the sorted rest.
var subjectKeys = []string{"model_type", "model_id", "locale"}

// Options configures the console logger provider.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

type sink struct {
	mu       sync.Mutex
	writer   io.Writer
	clock    func() time.Time
	minLevel Level
}

// NewProvider returns a provider writing to stdout at DEBUG unless Options
// says otherwise.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{writer: opts.Writer, clock: opts.TimeFunc, minLevel: LevelDebug}
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if opts.MinLevel != nil {
		s.minLevel = *opts.MinLevel
	}
	return s
}

func (s *sink) GetLogger(name string) interfaces.Logger {
	return &lineLogger{sink: s, fields: map[string]any{"logger": name}}
}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// best effort
	_, _ = io.WriteString(s.writer, line)
}

type lineLogger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*lineLogger)(nil)
	_ interfaces.FieldsLogger = (*lineLogger)(nil)
)

func (l *lineLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args) }
func (l *lineLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *lineLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *lineLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *lineLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }
func (l *lineLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args) }

func (l *lineLogger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &lineLogger{sink: l.sink, fields: merged, ctx: l.ctx}
}

func (l *lineLogger) WithContext(ctx context.Context) interfaces.Logger {
	return &lineLogger{sink: l.sink, fields: l.fields, ctx: ctx}
}

// log merges fields by precedence: logger fields, then context fields, then
// call arguments.
func (l *lineLogger) log(level Level, msg string, args []any) {
	if l.sink == nil || level < l.sink.minLevel {
		return
	}
	fields := make(map[string]any, len(l.fields)+len(args)/2+3)
	maps.Copy(fields, l.fields)
	maps.Copy(fields, logging.ContextFields(l.ctx))
	appendArgs(fields, args)

	l.sink.write(formatLine(l.sink.clock().UTC(), level, msg, fields) + "\n")
}

// appendArgs reads key/value pairs. A non-string key or a trailing value
// without a key is stored under "!BADKEY".
func appendArgs(fields map[string]any, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i == len(args)-1 {
			fields["!BADKEY"] = args[i]
			return
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "!BADKEY"
		}
		fields[key] = args[i+1]
	}
}

func formatLine(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)

	for _, key := range subjectKeys {
		if value, ok := fields[key]; ok {
			writePair(&b, key, value)
			delete(fields, key)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		writePair(&b, key, fields[key])
	}
	return b.String()
}

func writePair(b *strings.Builder, key string, value any) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(value))
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return quote(v)
	case time.Time:
		return quote(v.UTC().Format(time.RFC3339Nano))
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return quote(fmt.Sprint(value))
}

func quote(value string) string {
	if value == "" || strings.ContainsFunc(value, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(value)
	}
	return value
}
