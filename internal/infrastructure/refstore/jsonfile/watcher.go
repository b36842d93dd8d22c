package jsonfile

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/pkg/errors"
)

// debounceWindow coalesces the burst of fsnotify events produced by a
// single editor save or atomic rename.
const debounceWindow = 250 * time.Millisecond

// Reloader is the subset of the snapshot holder the watcher drives.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher reloads the snapshot holder whenever either reference-data file
// changes on disk. It watches the parent directories rather than the files
// themselves, so atomic write-and-rename updates are picked up.
type Watcher struct {
	cfg      Config
	reloader Reloader
	logger   logging.Logger
	fw       *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher starts watching the directories containing the configured
// files. Close must be called to release the underlying watcher.
func NewWatcher(cfg Config, reloader Reloader, logger logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create file watcher")
	}

	dirs := map[string]struct{}{
		filepath.Dir(cfg.StandardsPath):     {},
		filepath.Dir(cfg.ContributionsPath): {},
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to watch reference data directory").
				WithDetail(dir)
		}
	}

	w := &Watcher{
		cfg:      cfg,
		reloader: reloader,
		logger:   logger.Named("refwatch"),
		fw:       fw,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}
		case <-fire:
			timer = nil
			fire = nil
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.reloader.Reload(ctx); err != nil {
				w.logger.Warn("reload after file change failed, keeping previous snapshot",
					logging.Err(err))
			}
			cancel()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", logging.Err(err))
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevant reports whether the event touches one of the two watched files
// with an operation that can change their content.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	return name == filepath.Clean(w.cfg.StandardsPath) ||
		name == filepath.Clean(w.cfg.ContributionsPath)
}

// Close stops the watch loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
