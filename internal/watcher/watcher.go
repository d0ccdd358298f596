package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"shelve/internal/logging"
	"shelve/internal/media"
)

// settleDelay gives a copied-in file time to finish before reporting it.
const settleDelay = 2 * time.Second

// Watcher reports media files that appear in the download directory outside
// a managed transfer, so they can go through the same processing pipeline.
type Watcher struct {
	dir    string
	logger *slog.Logger
	notify func(path string)
}

// New creates a watcher over dir. notify is called once per settled media
// file.
func New(dir string, logger *slog.Logger, notify func(path string)) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		dir:    dir,
		logger: logger.With(logging.String(logging.FieldComponent, "watcher")),
		notify: notify,
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching download directory", logging.String("dir", w.dir))

	pending := make(map[string]*time.Timer)
	defer func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !media.IsMediaFile(event.Name) {
				continue
			}
			// Debounce: each write resets the settle timer.
			if timer, ok := pending[event.Name]; ok {
				timer.Stop()
			}
			path := event.Name
			pending[path] = time.AfterFunc(settleDelay, func() {
				w.logger.Info("new file settled", logging.String("path", path))
				if w.notify != nil {
					w.notify(path)
				}
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}
