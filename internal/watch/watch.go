// Package watch re-runs a transformation whenever its input file changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relstack-labs/relsvg/internal/transform"
)

// debounceDelay coalesces the event bursts editors produce on save.
const debounceDelay = 100 * time.Millisecond

// Watcher rebuilds one output file from one input file on change.
type Watcher struct {
	tr  *transform.Transformer
	log *slog.Logger
}

func New(tr *transform.Transformer, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Watcher{tr: tr, log: log}
}

// Run transforms in to out, then keeps rebuilding on every change until
// ctx is canceled. Transform failures are reported and watched through:
// a broken intermediate save must not end the session.
func (w *Watcher) Run(ctx context.Context, in, out string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Watch the directory, not the file: editors that save via
	// rename-and-replace would otherwise detach the watch.
	dir := filepath.Dir(in)
	if err := fsw.Add(dir); err != nil {
		return err
	}

	w.rebuild(ctx, in, out)

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	target := filepath.Clean(in)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(debounceDelay)

		case <-debounce.C:
			w.rebuild(ctx, in, out)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, in, out string) {
	start := time.Now()
	res, err := w.tr.TransformFile(ctx, in, out)
	if err != nil {
		w.log.Error("transform failed", "input", in, "error", err)
		return
	}
	w.log.Info("transformed", "input", in, "output", out,
		"elements", len(res.Elements), "passes", res.Passes,
		"elapsed", time.Since(start).Round(time.Millisecond))
}
