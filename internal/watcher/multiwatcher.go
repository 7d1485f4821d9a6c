package watcher

import (
	"context"
	"sync"
)

// RootEvent is one watcher batch tagged with the root it came from,
// the multi-root variant §4.7 describes ("prefixes each change with
// its root").
type RootEvent struct {
	Root   string
	Events []FileEvent
}

// MultiWatcher fans multiple per-root FSWatchers into a single
// prefixed event stream.
type MultiWatcher struct {
	opts     Options
	watchers map[string]*FSWatcher
	eventsCh chan RootEvent
	errCh    chan error
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
}

// NewMultiWatcher creates a MultiWatcher sharing the given base
// options across every root it watches.
func NewMultiWatcher(opts Options) *MultiWatcher {
	return &MultiWatcher{
		opts:     opts,
		watchers: make(map[string]*FSWatcher),
		eventsCh: make(chan RootEvent, 64),
		errCh:    make(chan error, 64),
	}
}

// Start begins watching every root given, each with its own FSWatcher.
func (m *MultiWatcher) Start(ctx context.Context, roots []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true

	for _, root := range roots {
		fw := NewFSWatcher(m.opts)
		if err := fw.Start(ctx, root); err != nil {
			return err
		}
		m.watchers[root] = fw
		m.wg.Add(1)
		go m.forward(root, fw)
	}
	return nil
}

func (m *MultiWatcher) forward(root string, fw *FSWatcher) {
	defer m.wg.Done()
	for {
		select {
		case batch, ok := <-fw.Events():
			if !ok {
				m.drainErrors(fw)
				return
			}
			select {
			case m.eventsCh <- RootEvent{Root: root, Events: batch}:
			default:
			}
		case err, ok := <-fw.Errors():
			if !ok {
				continue
			}
			select {
			case m.errCh <- err:
			default:
			}
		}
	}
}

func (m *MultiWatcher) drainErrors(fw *FSWatcher) {
	for err := range fw.Errors() {
		select {
		case m.errCh <- err:
		default:
		}
	}
}

// Events streams root-tagged batches across every watched root.
func (m *MultiWatcher) Events() <-chan RootEvent {
	return m.eventsCh
}

// Errors streams non-fatal errors across every watched root.
func (m *MultiWatcher) Errors() <-chan error {
	return m.errCh
}

// Stop stops every per-root watcher and closes the fan-in channels
// once all of them have drained.
func (m *MultiWatcher) Stop() error {
	m.mu.Lock()
	watchers := make([]*FSWatcher, 0, len(m.watchers))
	for _, fw := range m.watchers {
		watchers = append(watchers, fw)
	}
	m.mu.Unlock()

	var firstErr error
	for _, fw := range watchers {
		if err := fw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.wg.Wait()
	close(m.eventsCh)
	close(m.errCh)
	return firstErr
}
