package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/dvx/internal/ui"
	"github.com/oakwood-commons/dvx/pkg/record"
)

const defaultWatchDebounce = 200 * time.Millisecond

// fileWatcher reloads a data file when it changes and hands the result to
// send. Editors that save by renaming a temp file over the original are
// covered by watching the parent directory.
type fileWatcher struct {
	path     string
	debounce time.Duration
	load     func(context.Context) ([]record.Record, error)
	send     func(tea.Msg)
	log      logr.Logger
}

func newFileWatcher(path string, load func(context.Context) ([]record.Record, error), send func(tea.Msg), log logr.Logger) *fileWatcher {
	return &fileWatcher{
		path:     filepath.Clean(path),
		debounce: defaultWatchDebounce,
		load:     load,
		send:     send,
		log:      log,
	}
}

// Run blocks until ctx is cancelled. Reload failures are sent as
// ui.ErrMsg; only a failure to set up the watch is returned.
func (w *fileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.log.V(1).Info("watching data file", "path", w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.log.V(1).Info("data file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "watcher error", "path", w.path)

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *fileWatcher) reload(ctx context.Context) {
	records, err := w.load(ctx)
	if err != nil {
		w.log.Error(err, "reload failed", "path", w.path)
		w.send(ui.ErrMsg{Err: fmt.Errorf("reload %s: %w", filepath.Base(w.path), err)})
		return
	}
	w.log.V(1).Info("reloaded data file", "path", w.path, "records", len(records))
	w.send(ui.RecordsMsg{Records: records, Source: filepath.Base(w.path)})
}
