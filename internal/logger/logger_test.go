package logger_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ksebe/streakd/internal/logger"
	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2025, 12, 27, 18, 30, 0, 0, time.UTC)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(logger.WARN),
		logger.WithColors(false),
		logger.WithCaller(false),
		logger.WithClock(fixedClock),
	)

	log.Info("dropped")
	log.Warn("kept %d", 1)

	assert.Equal(t, "2025-12-27 18:30:00.000 WARN  kept 1\n", buf.String())
}

func TestLogger_FieldsAreSortedAndPrefixed(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithColors(false),
		logger.WithCaller(false),
		logger.WithClock(fixedClock),
	).WithPrefix("practicelog").WithFields(map[string]any{"user": "u1", "count": 3})

	log.Info("logged day")

	assert.Equal(t, "2025-12-27 18:30:00.000 INFO  [practicelog] logged day count=3 user=u1\n", buf.String())
}

func TestLogger_DerivedLoggerDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := logger.New(logger.WithOutput(&buf), logger.WithColors(false), logger.WithCaller(false), logger.WithClock(fixedClock))
	_ = parent.WithField("request_id", "abc")

	parent.Info("plain")

	assert.NotContains(t, buf.String(), "request_id")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logger.Level{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warning": logger.WARN,
		"Error":   logger.ERROR,
		"bogus":   logger.INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
	assert.True(t, logger.ValidLevel("warn"))
	assert.False(t, logger.ValidLevel("loud"))
}

func TestFromContext(t *testing.T) {
	l := logger.Discard()
	ctx := logger.NewContext(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
