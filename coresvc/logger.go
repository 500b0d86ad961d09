package coresvc

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes templated messages to a [zap.Logger].
//
// Templates use named placeholders filled with the arguments in order:
//
//	logger.Log(zapcore.InfoLevel, "Started {module} in {elapsed}", name, time.Since(start))
//
// Each placeholder is also added as a field named after it. Unused arguments are added
// as fields named arg0, arg1 and so on. Write "{{" for a literal brace.
type Logger struct {
	z *zap.Logger
}

// NewLogger creates a [Logger] writing to z. A nil z discards everything.
func NewLogger(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Zap returns the underlying logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.z.Core().Enabled(level)
}

// Log renders template with args and writes it at level.
func (l *Logger) Log(level zapcore.Level, template string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	msg, fields := render(template, args)
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(template string, args ...any) { l.Log(zapcore.DebugLevel, template, args...) }

// Info logs at info level.
func (l *Logger) Info(template string, args ...any) { l.Log(zapcore.InfoLevel, template, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(template string, args ...any) { l.Log(zapcore.WarnLevel, template, args...) }

// Error logs at error level.
func (l *Logger) Error(template string, args ...any) { l.Log(zapcore.ErrorLevel, template, args...) }

func render(template string, args []any) (string, []zap.Field) {
	var (
		sb     strings.Builder
		fields []zap.Field
		next   int
	)

	for i := 0; i < len(template); i++ {
		ch := template[i]
		if ch != '{' {
			sb.WriteByte(ch)
			continue
		}

		if i+1 < len(template) && template[i+1] == '{' {
			sb.WriteByte('{')
			i++
			continue
		}

		end := strings.IndexByte(template[i+1:], '}')
		if end < 0 {
			sb.WriteString(template[i:])
			break
		}

		name := template[i+1 : i+1+end]
		placeholder := template[i : i+2+end]
		i += end + 1

		if name == "" || next >= len(args) {
			sb.WriteString(placeholder)
			continue
		}

		sb.WriteString(fmt.Sprint(args[next]))
		fields = append(fields, zap.Any(name, args[next]))
		next++
	}

	for j := next; j < len(args); j++ {
		fields = append(fields, zap.Any(fmt.Sprintf("arg%d", j), args[j]))
	}

	return sb.String(), fields
}
