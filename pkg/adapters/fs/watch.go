package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/thewpsquad/fieldkit/internal/atomicfile"
)

// DebounceInterval collapses bursts of filesystem events into one reload.
const DebounceInterval = 50 * time.Millisecond

// Event reports that the vault was reloaded after files changed.
type Event struct {
	Paths     []string
	Timestamp int64
}

func (e Event) String() string {
	return "reload: " + strings.Join(e.Paths, ", ")
}

// Watch reloads the vault whenever a matching file changes and then calls onChange.
// It returns once the watcher is running; the loop stops when ctx is done.
func (r *Repository) Watch(ctx context.Context, onChange func(Event)) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := r.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}
	r.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer r.setWatcherActive(false)
		defer watcher.Close()
		return r.watchLoop(ctx, watcher, onChange)
	}, lifecycle.WithErrorHandler(func(err error) {
		r.report(fmt.Errorf("watcher stopped: %w", err))
	}))
	return nil
}

func (r *Repository) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func(Event)) error {
	var (
		mu      sync.Mutex
		pending []string
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		paths := pending
		pending = nil
		mu.Unlock()
		if len(paths) == 0 || ctx.Err() != nil {
			return
		}

		if err := r.Reload(ctx); err != nil {
			r.report(fmt.Errorf("reload failed: %w", err))
			return
		}
		r.recordReconcile()
		if onChange != nil {
			onChange(Event{Paths: paths, Timestamp: time.Now().Unix()})
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = r.addTree(watcher, event.Name)
				}
			}

			relPath, ok := r.relevant(event)
			if !ok {
				continue
			}
			if r.config.Logger != nil {
				r.config.Logger.Debug("vault change", "path", relPath, "op", event.Op.String())
			}

			mu.Lock()
			pending = append(pending, relPath)
			if timer == nil {
				timer = time.AfterFunc(DebounceInterval, flush)
			} else {
				timer.Reset(DebounceInterval)
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			r.report(fmt.Errorf("fsnotify: %w", err))
		}
	}
}

// relevant maps an event to a vault-relative path when it concerns a document.
func (r *Repository) relevant(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	rel, err := filepath.Rel(r.Path, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if r.skip(rel) || atomicfile.IsTemp(rel) {
		return "", false
	}

	ok, err := doublestar.Match(r.config.Pattern, rel)
	return rel, err == nil && ok
}

func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher) error {
	return r.addTree(watcher, r.Path)
}

func (r *Repository) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != r.Path && (d.Name() == ".git" || d.Name() == r.config.SystemDir) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}
