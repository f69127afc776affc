package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionalSourceHandler(t *testing.T) {
	tests := []struct {
		name         string
		level        slog.Level
		sourceLevels []slog.Level
		wantSource   bool
	}{
		{
			name:         "debug below source levels",
			level:        slog.LevelDebug,
			sourceLevels: []slog.Level{slog.LevelWarn, slog.LevelError},
			wantSource:   false,
		},
		{
			name:         "info below source levels",
			level:        slog.LevelInfo,
			sourceLevels: []slog.Level{slog.LevelWarn, slog.LevelError},
			wantSource:   false,
		},
		{
			name:         "warn carries source",
			level:        slog.LevelWarn,
			sourceLevels: []slog.Level{slog.LevelWarn, slog.LevelError},
			wantSource:   true,
		},
		{
			name:         "error carries source",
			level:        slog.LevelError,
			sourceLevels: []slog.Level{slog.LevelWarn, slog.LevelError},
			wantSource:   true,
		},
		{
			name:         "info carries source when all levels selected",
			level:        slog.LevelInfo,
			sourceLevels: []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError},
			wantSource:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
			log := slog.New(NewConditionalSourceHandler(base, tt.sourceLevels...))

			log.Log(context.Background(), tt.level, "settlement cycle note")

			assert.Equal(t, tt.wantSource, bytes.Contains(buf.Bytes(), []byte("source=")), buf.String())
		})
	}
}

func TestConditionalSourceHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
	log := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).With("node_id", 7)

	log.Info("collected stats")

	out := buf.String()
	assert.NotContains(t, out, "source=")
	assert.Contains(t, out, "node_id=7")
}

func TestConditionalSourceHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
	log := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).WithGroup("job")

	log.Info("completed", "name", "record-user-usages")

	out := buf.String()
	assert.NotContains(t, out, "source=")
	assert.Contains(t, out, "job.name=record-user-usages")
}

func TestConditionalSourceHandlerEnabled(t *testing.T) {
	base := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	handler := NewConditionalSourceHandler(base, slog.LevelError)

	// Level gating stays with the wrapped handler.
	assert.True(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelError))
	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))
}
