package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	minierrors "github.com/minimem/minimem/internal/errors"
)

// FSWatcher implements Watcher with fsnotify (§4.7), debouncing
// through a Debouncer and awaiting a per-path stability window before
// an event is considered write-complete.
type FSWatcher struct {
	opts Options

	fsw          *fsnotify.Watcher
	debouncer    *Debouncer
	errCh        chan error
	stopOnce     sync.Once
	errCloseOnce sync.Once
	stopCh       chan struct{}
	done         chan struct{}
	fsCloseErr   error
	root         string
	stabilityM   sync.Mutex
	stability    map[string]*time.Timer
}

// NewFSWatcher creates an FSWatcher with the given options.
func NewFSWatcher(opts Options) *FSWatcher {
	opts = opts.WithDefaults()
	return &FSWatcher{
		opts:      opts,
		errCh:     make(chan error, 16),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		stability: make(map[string]*time.Timer),
	}
}

// Start begins watching root recursively. It walks the existing tree
// to register each directory and then watches for further
// directories created underneath.
func (w *FSWatcher) Start(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return minierrors.IOError("create fsnotify watcher", err)
	}
	w.fsw = fsw
	w.root = root
	w.debouncer = NewDebouncer(w.opts.Debounce)

	if err := w.addDirRecursive(root); err != nil {
		_ = fsw.Close()
		return err
	}

	go w.loop(ctx)
	return nil
}

func (w *FSWatcher) addDirRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && strings.HasPrefix(filepath.ToSlash(rel), minimemDir) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return minierrors.IOError("watch directory "+path, addErr)
		}
		return nil
	})
}

func (w *FSWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.stopLocked()
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errCh <- err:
			default:
				slog.Warn("watcher_error_channel_full_dropping", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *FSWatcher) handleFSEvent(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !matches(rel, w.opts.Include, w.opts.Exclude) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			_ = w.addDirRecursive(ev.Name)
			return
		}
		w.scheduleStable(rel, OpAdd)
		return
	}
	if ev.Op&fsnotify.Write != 0 {
		w.scheduleStable(rel, OpChange)
		return
	}
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.cancelStability(rel)
		w.debouncer.Add(FileEvent{Path: rel, Operation: OpUnlink, Timestamp: time.Now()})
	}
}

// scheduleStable delays handing an add/change event to the debouncer
// until the path has gone quiet for StabilityWindow, per §4.7's
// write-completion requirement.
func (w *FSWatcher) scheduleStable(rel string, op Operation) {
	w.stabilityM.Lock()
	defer w.stabilityM.Unlock()

	if t, ok := w.stability[rel]; ok {
		t.Stop()
	}
	w.stability[rel] = time.AfterFunc(w.opts.StabilityWindow, func() {
		w.debouncer.Add(FileEvent{Path: rel, Operation: op, Timestamp: time.Now()})
		w.stabilityM.Lock()
		delete(w.stability, rel)
		w.stabilityM.Unlock()
	})
}

func (w *FSWatcher) cancelStability(rel string) {
	w.stabilityM.Lock()
	defer w.stabilityM.Unlock()
	if t, ok := w.stability[rel]; ok {
		t.Stop()
		delete(w.stability, rel)
	}
}

// Events streams debounced, stability-settled batches.
func (w *FSWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors streams non-fatal fsnotify errors.
func (w *FSWatcher) Errors() <-chan error {
	return w.errCh
}

// stopLocked runs the shutdown sequence exactly once: stop pending
// stability timers, stop the debouncer, and close the fsnotify
// watcher (which in turn closes its Events/Errors channels and lets
// loop return). Safe to call from loop itself or from Stop.
func (w *FSWatcher) stopLocked() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.stabilityM.Lock()
		for _, t := range w.stability {
			t.Stop()
		}
		w.stability = make(map[string]*time.Timer)
		w.stabilityM.Unlock()
		if w.debouncer != nil {
			w.debouncer.Stop()
		}
		if w.fsw != nil {
			w.fsCloseErr = w.fsw.Close()
		}
	})
}

// Stop releases the fsnotify watcher and any pending stability timers.
// Safe to call multiple times; blocks until the event loop has fully
// exited before closing the error channel, so no send can race a
// close.
func (w *FSWatcher) Stop() error {
	w.stopLocked()
	<-w.done
	w.errCloseOnce.Do(func() { close(w.errCh) })
	return w.fsCloseErr
}
