package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oakwood-commons/dvx/internal/loader"
	"github.com/oakwood-commons/dvx/internal/ui"
	"github.com/oakwood-commons/dvx/pkg/record"
)

func startWatcher(t *testing.T, path string, load func(context.Context) ([]record.Record, error)) (<-chan tea.Msg, func()) {
	t.Helper()
	msgs := make(chan tea.Msg, 8)
	fw := newFileWatcher(path, load, func(m tea.Msg) { msgs <- m }, logr.Discard())
	fw.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()
	// give the watcher time to register before the test writes
	time.Sleep(50 * time.Millisecond)
	return msgs, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func waitMsg(t *testing.T, msgs <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case m := <-msgs:
		return m
	case <-time.After(3 * time.Second):
		t.Fatal("no message from watcher")
		return nil
	}
}

func TestFileWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Ana"}]`), 0o600))
	load := func(context.Context) ([]record.Record, error) {
		root, err := loader.DecodeFile(path, loader.FormatAuto)
		if err != nil {
			return nil, err
		}
		return loader.ToRecords(root, logr.Discard())
	}

	msgs, stop := startWatcher(t, path, load)
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Ana"},{"name":"Bo"}]`), 0o600))

	msg := waitMsg(t, msgs)
	rm, ok := msg.(ui.RecordsMsg)
	require.True(t, ok, "got %T", msg)
	assert.Len(t, rm.Records, 2)
	assert.Equal(t, "people.json", rm.Source)
	stop()
}

func TestFileWatcherReportsReloadErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	load := func(context.Context) ([]record.Record, error) { return nil, errors.New("bad data") }

	msgs, stop := startWatcher(t, path, load)
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

	msg := waitMsg(t, msgs)
	em, ok := msg.(ui.ErrMsg)
	require.True(t, ok, "got %T", msg)
	assert.ErrorContains(t, em.Err, "reload people.json: bad data")
	stop()
}

func TestFileWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	load := func(context.Context) ([]record.Record, error) { return nil, nil }

	msgs, stop := startWatcher(t, path, load)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o600))

	select {
	case m := <-msgs:
		t.Fatalf("unexpected message %T", m)
	case <-time.After(150 * time.Millisecond):
	}
	stop()
}

func TestFileWatcherMissingDirectory(t *testing.T) {
	fw := newFileWatcher(filepath.Join(t.TempDir(), "gone", "people.json"), nil, func(tea.Msg) {}, logr.Discard())
	err := fw.Run(context.Background())
	assert.ErrorContains(t, err, "watch ")
}
