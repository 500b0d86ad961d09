package coresvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sectrean/ioc-kit/internal/testutils"
)

func Test_render(t *testing.T) {
	tests := []struct {
		name     string
		template string
		args     []any
		want     string
		fields   []zap.Field
	}{
		{
			name:     "no placeholders",
			template: "plain message",
			want:     "plain message",
		},
		{
			name:     "placeholders",
			template: "Started {module} in {attempts} attempts",
			args:     []any{"http", 3},
			want:     "Started http in 3 attempts",
			fields:   []zap.Field{zap.Any("module", "http"), zap.Any("attempts", 3)},
		},
		{
			name:     "missing args",
			template: "{a} and {b}",
			args:     []any{1},
			want:     "1 and {b}",
			fields:   []zap.Field{zap.Any("a", 1)},
		},
		{
			name:     "extra args",
			template: "{a}",
			args:     []any{1, "two"},
			want:     "1",
			fields:   []zap.Field{zap.Any("a", 1), zap.Any("arg1", "two")},
		},
		{
			name:     "escaped brace",
			template: "{{literal} {x}",
			args:     []any{"y"},
			want:     "{literal} y",
			fields:   []zap.Field{zap.Any("x", "y")},
		},
		{
			name:     "unterminated",
			template: "value {x",
			args:     []any{1},
			want:     "value {x",
			fields:   []zap.Field{zap.Any("arg0", 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, fields := render(tt.template, tt.args)
			assert.Equal(t, tt.want, msg)
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func Test_Logger(t *testing.T) {
	z, logs := testutils.ObservedLogger(zapcore.InfoLevel)
	logger := NewLogger(z)

	logger.Debug("hidden {x}", 1)
	logger.Info("user {id} signed in", 7)
	logger.Warn("slow")
	logger.Error("failed {op}", "save")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "user 7 signed in", entries[0].Message)
		assert.Equal(t, map[string]any{"id": int64(7)}, entries[0].ContextMap())
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "failed save", entries[2].Message)
	}

	assert.False(t, logger.Enabled(zapcore.DebugLevel))
	assert.Same(t, z, logger.Zap())
	assert.NotPanics(t, func() { NewLogger(nil).Info("discarded") })
}
