package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultQuietPeriod is how long a burst of file events must settle before
// a reload is triggered
const DefaultQuietPeriod = 200 * time.Millisecond

// Watcher reports changes to a data file or data directory. Editors often
// replace files instead of writing them, so the parent directory is watched
// and events are filtered by name.
type Watcher struct {
	watcher *fsnotify.Watcher
	names   map[string]bool // base names of interest
	quiet   time.Duration
	log     *zap.SugaredLogger
}

// NewWatcher starts watching path. A directory matches its CSV tables.
func NewWatcher(path string, quiet time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "watching %s", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dir := path
	names := map[string]bool{NodesFile: true, LinksFile: true}
	if !info.IsDir() {
		dir = filepath.Dir(path)
		names = map[string]bool{filepath.Base(path): true}
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Watcher{watcher: watcher, names: names, quiet: quiet, log: log}, nil
}

// Run calls onChange once per settled burst of relevant events until ctx
// is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.quiet)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debugw("data file event", "path", event.Name, "op", event.Op.String())
			pending = true
			timer.Reset(w.quiet)

		case <-timer.C:
			if pending {
				pending = false
				onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.names[filepath.Base(event.Name)]
}
