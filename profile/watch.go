package profile

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports profile files changing on disk. Captures never retarget a
// running session; the watcher exists so the daemon can tell the user their
// edit takes effect on the next capture start.
type Watcher struct {
	fw     *fsnotify.Watcher
	logger *slog.Logger
	events chan string
}

// Watch starts watching a profile directory. Emitted values are profile keys
// ("vid:pid") for every created, rewritten or removed profile file.
func Watch(dir string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		fw:     fw,
		logger: logger,
		events: make(chan string, 16),
	}, nil
}

// Events yields changed profile keys. The channel closes when Run returns.
func (w *Watcher) Events() <-chan string { return w.events }

// Run pumps filesystem events until the context ends.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
			if event.Op&relevant == 0 {
				continue
			}
			key, ok := keyFromFile(event.Name)
			if !ok {
				continue
			}
			select {
			case w.events <- key:
			default:
				// Slow consumer; the next event for this key will catch up.
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("profile watcher error", "error", err)
		}
	}
}

// keyFromFile turns "044f-b10a.elite.toml" into "044f:b10a".
func keyFromFile(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".toml") {
		return "", false
	}
	base = strings.TrimSuffix(base, ".toml")
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	parts := strings.SplitN(base, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return "", false
	}
	return parts[0] + ":" + parts[1], true
}
