// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger routes slog output through t.Log, so resolver debug lines
// interleave with test output under -v and show up on failure.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(&tbWriter{tb: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tbWriter struct {
	tb testing.TB
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
