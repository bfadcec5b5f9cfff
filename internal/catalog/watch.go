package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a Catalog whenever its backing file changes. A broken edit
// is logged and the previous table stays in effect.
type Watcher struct {
	catalog  *Catalog
	path     string
	logger   zerolog.Logger
	onReload func(names []string)
}

func NewWatcher(c *Catalog, path string, logger zerolog.Logger) *Watcher {
	return &Watcher{
		catalog: c,
		path:    filepath.Clean(path),
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// SetReloadCallback is called after every successful reload.
func (w *Watcher) SetReloadCallback(fn func(names []string)) {
	w.onReload = fn
}

// Run watches until ctx is done. The directory is watched rather than the
// file so editors that replace the file on save keep working.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	w.logger.Info().Str("path", w.path).Msg("Watching emotion catalog")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Catalog watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if err := w.catalog.ReloadFile(w.path); err != nil {
		w.logger.Error().Err(err).Msg("Catalog reload failed, keeping previous table")
		return
	}

	names := w.catalog.Names()
	w.logger.Info().Int("emotions", len(names)).Msg("Emotion catalog reloaded")
	if w.onReload != nil {
		w.onReload(names)
	}
}
