// Package watcher implements the file watcher contract (§4.7):
// watch(root, {debounce-ms, include, exclude, use-polling,
// poll-interval-ms}) -> stream of batched change lists.
package watcher

import (
	"context"
	"time"
)

// Operation is the change vocabulary a watcher emits: add, change, or
// unlink. Rename, directory, and config/gitignore events from the
// teacher's broader codebase-scanning watcher have no place in
// SPEC_FULL's fixed three-event contract and are dropped.
type Operation int

const (
	// OpAdd indicates a new matching file appeared.
	OpAdd Operation = iota
	// OpChange indicates an existing matching file's content changed.
	OpChange
	// OpUnlink indicates a matching file was removed.
	OpUnlink
)

// String returns the event name used on the wire (§4.7: "add" |
// "change" | "unlink").
func (op Operation) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpUnlink:
		return "unlink"
	default:
		return "unknown"
	}
}

// FileEvent is one coalesced change, relative to the watched root.
type FileEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Watcher watches one memory root and emits debounced batches of
// changes. Consecutive events on the same path coalesce so the last
// event wins within the debounce window.
type Watcher interface {
	// Start begins watching root. Runs until Stop is called or ctx is
	// cancelled.
	Start(ctx context.Context, root string) error

	// Stop stops the watcher and releases OS resources. Safe to call
	// multiple times.
	Stop() error

	// Events streams batched, debounced change lists.
	Events() <-chan []FileEvent

	// Errors streams non-fatal watcher errors. The channel closes when
	// the watcher stops.
	Errors() <-chan error
}

// Options configures a Watcher, per §4.7's contract.
type Options struct {
	// Debounce is the coalescing window; a batch flushes this long
	// after its last event.
	Debounce time.Duration

	// Include restricts emitted paths to these glob patterns, matched
	// against the path relative to root. Empty means match the
	// indexer's default membership rule is left to the caller — an
	// empty Include matches everything not otherwise excluded.
	Include []string

	// Exclude drops paths matching any of these glob patterns, in
	// addition to the always-on ".minimem/" exclusion.
	Exclude []string

	// UsePolling selects a polling backend. FSWatcher does not read it:
	// it always uses OS filesystem notifications through fsnotify, and
	// no polling backend exists in this package.
	UsePolling bool

	// PollInterval is the scan interval for a polling backend. FSWatcher
	// does not read it.
	PollInterval time.Duration

	// StabilityWindow is how long a path must go unmodified before its
	// event is considered complete and handed to the debouncer, to
	// avoid emitting mid-write events. Default ~500ms.
	StabilityWindow time.Duration
}

// DefaultOptions returns §4.7's defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:        200 * time.Millisecond,
		PollInterval:    2 * time.Second,
		StabilityWindow: 500 * time.Millisecond,
	}
}

// WithDefaults fills zero-valued fields with DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Debounce == 0 {
		o.Debounce = d.Debounce
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	if o.StabilityWindow == 0 {
		o.StabilityWindow = d.StabilityWindow
	}
	return o
}
