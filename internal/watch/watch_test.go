package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relstack-labs/relsvg/internal/resolver"
	"github.com/relstack-labs/relsvg/internal/testutil"
	"github.com/relstack-labs/relsvg/internal/transform"
)

func outputContains(out, substr string) func() bool {
	return func() bool {
		raw, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(raw), substr)
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.svg")
	out := filepath.Join(dir, "out.svg")
	require.NoError(t, os.WriteFile(in, []byte(`<svg><rect xy="0" wh="5" fill="red"/></svg>`), 0o644))

	log := testutil.NewTestLogger(t)
	w := New(transform.New(resolver.Config{Logger: log}), log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, in, out) }()

	require.Eventually(t, outputContains(out, `fill="red"`), 5*time.Second, 20*time.Millisecond,
		"initial transform did not produce output")

	require.NoError(t, os.WriteFile(in, []byte(`<svg><rect xy="0" wh="5" fill="blue"/></svg>`), 0o644))
	require.Eventually(t, outputContains(out, `fill="blue"`), 5*time.Second, 20*time.Millisecond,
		"change did not trigger a rebuild")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatcher_KeepsOutputOnBrokenInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.svg")
	out := filepath.Join(dir, "out.svg")
	require.NoError(t, os.WriteFile(in, []byte(`<svg><rect xy="0" wh="5" fill="red"/></svg>`), 0o644))

	log := testutil.NewTestLogger(t)
	w := New(transform.New(resolver.Config{Logger: log}), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, in, out) }()

	require.Eventually(t, outputContains(out, `fill="red"`), 5*time.Second, 20*time.Millisecond)

	// Broken save: previous output must survive.
	require.NoError(t, os.WriteFile(in, []byte(`<svg><rect wh="1" xy="#missing|h"/></svg>`), 0o644))
	time.Sleep(500 * time.Millisecond)
	assert.True(t, outputContains(out, `fill="red"`)(), "output clobbered by failed transform")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatcher_MissingInputDir(t *testing.T) {
	log := testutil.NewTestLogger(t)
	w := New(transform.New(resolver.Config{Logger: log}), log)

	err := w.Run(context.Background(), "/nonexistent/dir/in.svg", "/tmp/out.svg")
	require.Error(t, err)
}
