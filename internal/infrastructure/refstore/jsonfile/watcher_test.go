package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
)

type recordingReloader struct {
	reloaded chan struct{}
}

func (r *recordingReloader) Reload(_ context.Context) error {
	select {
	case r.reloaded <- struct{}{}:
	default:
	}
	return nil
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	cfg := writeDataFiles(t, standardsJSON, contributionsJSON)
	reloader := &recordingReloader{reloaded: make(chan struct{}, 1)}

	w, err := NewWatcher(cfg, reloader, logging.NewNopLogger())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(cfg.ContributionsPath, []byte(`{}`), 0o644))

	select {
	case <-reloader.reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after the contributions file changed")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	cfg := writeDataFiles(t, standardsJSON, contributionsJSON)
	reloader := &recordingReloader{reloaded: make(chan struct{}, 1)}

	w, err := NewWatcher(cfg, reloader, logging.NewNopLogger())
	require.NoError(t, err)
	defer w.Close()

	other := filepath.Join(filepath.Dir(cfg.StandardsPath), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("scratch"), 0o644))

	select {
	case <-reloader.reloaded:
		t.Fatal("unrelated file change must not trigger a reload")
	case <-time.After(2 * debounceWindow):
	}
}

func TestWatcherPicksUpRename(t *testing.T) {
	cfg := writeDataFiles(t, standardsJSON, contributionsJSON)
	reloader := &recordingReloader{reloaded: make(chan struct{}, 1)}

	w, err := NewWatcher(cfg, reloader, logging.NewNopLogger())
	require.NoError(t, err)
	defer w.Close()

	// Atomic update: write a sidecar then rename it over the watched file.
	tmp := cfg.StandardsPath + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(standardsJSON), 0o644))
	require.NoError(t, os.Rename(tmp, cfg.StandardsPath))

	select {
	case <-reloader.reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after an atomic rename")
	}
}

func TestWatcherClose(t *testing.T) {
	cfg := writeDataFiles(t, standardsJSON, contributionsJSON)
	reloader := &recordingReloader{reloaded: make(chan struct{}, 1)}

	w, err := NewWatcher(cfg, reloader, logging.NewNopLogger())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
