package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/arenalobby/internal/logger"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.Level
	}{
		{"debug", logger.DEBUG},
		{"INFO", logger.INFO},
		{"warning", logger.WARN},
		{"Warn", logger.WARN},
		{"error", logger.ERROR},
		{"nonsense", logger.INFO},
		{"", logger.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN), logger.WithColors(false))

	log.Debug("hidden %d", 1)
	log.Info("hidden too")
	log.Warn("visible %s", "warning")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warning")
	assert.Contains(t, out, "WARN")
}

func TestLogger_PrefixAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.DEBUG), logger.WithColors(false))

	log.WithPrefix("match_repo").WithField("match_id", "m-1").Info("joined")

	out := buf.String()
	assert.Contains(t, out, "[match_repo]")
	assert.Contains(t, out, "joined")
	assert.Contains(t, out, "m-1")
}

func TestLogger_WithPrefixReplaces(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithColors(false), logger.WithPrefix("db"))

	log.WithPrefix("api").Info("hello")

	out := buf.String()
	assert.Contains(t, out, "[api]")
	assert.NotContains(t, out, "[db]")
}

func TestFromContext(t *testing.T) {
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))

	custom := logger.New(logger.WithPrefix("custom"))
	ctx := logger.NewContext(context.Background(), custom)
	assert.Same(t, custom, logger.FromContext(ctx))
}
