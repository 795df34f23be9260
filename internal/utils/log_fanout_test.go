package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutHandler_LevelsPerTarget(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	fanout := NewFanoutHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(fanout)

	logger.Debug("low level detail")
	logger.Info("something happened")

	assert.Contains(t, debugBuf.String(), "low level detail")
	assert.Contains(t, debugBuf.String(), "something happened")
	assert.NotContains(t, infoBuf.String(), "low level detail")
	assert.Contains(t, infoBuf.String(), "something happened")
}

func TestFanoutHandler_WithAttrsReachesAllTargets(t *testing.T) {
	var a, b bytes.Buffer
	fanout := NewFanoutHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)
	logger := slog.New(fanout).With("project", "demo")

	logger.Info("synced")

	assert.Contains(t, a.String(), "project=demo")
	assert.Contains(t, b.String(), "project=demo")
}
