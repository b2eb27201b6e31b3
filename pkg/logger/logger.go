package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Logger пишет структурированные записи через zerolog и, если подключен
// publisher, дублирует их во внешнюю систему (CloudWatch Logs).
type Logger struct {
	zl     zerolog.Logger
	level  Level
	fields []interface{}
	sink   *publisherSink
}

type publisherSink struct {
	mu        sync.RWMutex
	publisher port.LogPublisher
}

// New создает logger, пишущий JSON в stdout.
// LOG_FORMAT=console включает человекочитаемый вывод.
func New(level string) *Logger {
	console := strings.EqualFold(os.Getenv("LOG_FORMAT"), "console")
	return NewWithOutput(level, os.Stdout, console)
}

func NewWithOutput(level string, out io.Writer, console bool) *Logger {
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}
	return &Logger{
		zl:    zerolog.New(out).With().Timestamp().Logger(),
		level: parseLevel(level),
		sink:  &publisherSink{},
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLogPublisher подключает внешний publisher ко всем производным logger'ам.
func (l *Logger) SetLogPublisher(publisher port.LogPublisher) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.publisher = publisher
}

// With возвращает logger с постоянными полями.
func (l *Logger) With(args ...interface{}) *Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &Logger{
		zl:     l.zl,
		level:  l.level,
		fields: fields,
		sink:   l.sink,
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log(DEBUG, msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log(INFO, msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log(WARN, msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log(ERROR, msg, args...)
	}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	all := make([]interface{}, 0, len(l.fields)+len(args))
	all = append(all, l.fields...)
	all = append(all, args...)

	event := l.zl.WithLevel(zerologLevel(level))
	fields := make(map[string]interface{}, len(all)/2)
	for i := 0; i+1 < len(all); i += 2 {
		key := fmt.Sprint(all[i])
		event = event.Interface(key, all[i+1])
		fields[key] = all[i+1]
	}
	event.Msg(msg)

	l.publish(level, msg, fields)
}

func (l *Logger) publish(level Level, msg string, fields map[string]interface{}) {
	l.sink.mu.RLock()
	publisher := l.sink.publisher
	l.sink.mu.RUnlock()
	if publisher == nil {
		return
	}

	// Ошибки publisher'а не должны ломать логирование
	_ = publisher.Publish(context.Background(), port.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     portLevel(level),
		Message:   msg,
		Fields:    fields,
	})
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func portLevel(level Level) port.LogLevel {
	switch level {
	case DEBUG:
		return port.LogLevelDebug
	case WARN:
		return port.LogLevelWarn
	case ERROR:
		return port.LogLevelError
	default:
		return port.LogLevelInfo
	}
}
