// Package syncops implements the sync operations (§4.10): push, pull,
// bidirectional sync, and the quarantine sidecar, all built on the
// last-write-wins contract — push never deletes at the remote, pull
// never deletes locally.
package syncops

import "time"

// Options configures one push/pull/sync call.
type Options struct {
	// DryRun classifies and reports but performs no I/O and no state
	// writes.
	DryRun bool

	// Force makes pull overwrite a locally-modified file instead of
	// skipping it. Has no effect on push, which always overwrites the
	// remote for local-only/local-modified paths.
	Force bool

	// CentralRepoRoot is the root of the central repository that owns
	// the registry file, distinct from RemoteRoot (the project's
	// sub-path within it).
	CentralRepoRoot string

	// CentralSubPath is this root's mapping key in the registry
	// (§4.9), used to update the mapping's last-sync timestamp.
	CentralSubPath string

	// MachineID identifies the local machine for the registry update.
	MachineID string
}

// Outcome is the result status recorded in a sync log entry (§6.4).
type Outcome string

const (
	Success Outcome = "success"
	Partial Outcome = "partial"
	Failure Outcome = "failure"
)

// Result is the outcome of one push, pull, or bidirectional sync.
type Result struct {
	Operation string    `json:"operation"` // "push" | "pull" | "sync"
	Result    Outcome   `json:"result"`
	Pushed    int       `json:"pushed,omitempty"`
	Pulled    int       `json:"pulled,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
