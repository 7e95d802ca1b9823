package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
}

func SetLevel(l Level) {
	level.Store(int32(l))
}

// ParseLevel понимает debug, info, error. Всё остальное - info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func enabled(l Level) bool {
	return l >= Level(level.Load())
}

func Debug(ctx context.Context, msg string, keyvals ...any) {
	if enabled(LevelDebug) {
		output(ctx, "DEBUG", msg, keyvals)
	}
}

func Info(ctx context.Context, msg string, keyvals ...any) {
	if enabled(LevelInfo) {
		output(ctx, "INFO", msg, keyvals)
	}
}

// Error пишет сообщение и ошибку в формате "msg: err". err может быть nil.
func Error(ctx context.Context, err error, msg string, keyvals ...any) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	output(ctx, "ERROR", msg, keyvals)
}

func output(_ context.Context, lvl, msg string, keyvals []any) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(lvl)
	b.WriteString("] ")
	b.WriteString(msg)

	for i := 0; i < len(keyvals); i += 2 {
		b.WriteString(" ")
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, "%v=%v", keyvals[i], keyvals[i+1])
		} else {
			// Нечетное число аргументов
			fmt.Fprintf(&b, "%v=?", keyvals[i])
		}
	}

	log.Print(b.String())
}
