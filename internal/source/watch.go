package source

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/osteele/treeselect/internal/debug"
)

// ErrFileRemoved ends a watch when the watched file is deleted.
var ErrFileRemoved = errors.New("watched file was removed")

// DefaultWatchDebounce coalesces bursts of writes from editors that save in
// several steps.
const DefaultWatchDebounce = 100 * time.Millisecond

// Watch provides an item file and pushes a new snapshot each time the file
// changes on disk.
func Watch(path string, debounce time.Duration) Provider {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return Stream(func(ctx context.Context) <-chan Update {
		ch := make(chan Update)
		go watchFile(ctx, path, debounce, ch)
		return ch
	})
}

func watchFile(ctx context.Context, path string, debounce time.Duration, ch chan<- Update) {
	defer close(ch)

	load := func() bool {
		items, err := LoadFile(path)
		if err != nil {
			send(ctx, ch, Update{Err: err})
			return false
		}
		return send(ctx, ch, Update{Items: items})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		send(ctx, ch, Update{Err: err})
		return
	}
	defer fsw.Close()

	// Watch the directory: editors often replace the file rather than write it.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		send(ctx, ch, Update{Err: err})
		return
	}
	if !load() {
		return
	}

	target := filepath.Base(path)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				send(ctx, ch, Update{Err: ErrFileRemoved})
				return
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				debug.Log("source: %s changed (%s)", path, event.Op)
				timer.Reset(debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			send(ctx, ch, Update{Err: err})
			return

		case <-timer.C:
			if !load() {
				return
			}
		}
	}
}
