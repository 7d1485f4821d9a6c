package syncops

import (
	"sort"

	"github.com/minimem/minimem/internal/syncstate"
)

func sortStrings(s []string) { sort.Strings(s) }

// Pull implements §4.10.3: remote-only files copy to local; a
// locally-modified file is only overwritten when Force is set or the
// local file is missing; local-only files are left untouched (pull
// never deletes locally).
func Pull(localRoot, remoteRoot string, include, exclude []string, opts Options) (*Result, error) {
	plan := func(localHash, remoteHash string) (syncstate.Status, bool, bool) {
		status := syncstate.Classify(localHash, remoteHash)
		switch status {
		case syncstate.RemoteOnly:
			return status, true, false
		case syncstate.LocalModified:
			if opts.Force || localHash == "" {
				return status, true, false
			}
			return status, false, false
		default: // Unchanged, LocalOnly
			return status, false, false
		}
	}
	return runDirectional("pull", localRoot, remoteRoot, include, exclude, opts, plan)
}

// Bidirectional runs Push then Pull (§4.10.4) and aggregates the two
// results; it succeeds only if both legs succeed.
func Bidirectional(localRoot, remoteRoot string, include, exclude []string, opts Options) (*Result, error) {
	pushResult, pushErr := Push(localRoot, remoteRoot, include, exclude, opts)
	pullResult, pullErr := Pull(localRoot, remoteRoot, include, exclude, opts)

	result := &Result{Operation: "sync"}
	if pushResult != nil {
		result.Pushed = pushResult.Pushed
		result.Errors = append(result.Errors, pushResult.Errors...)
		result.Timestamp = pushResult.Timestamp
	}
	if pullResult != nil {
		result.Pulled = pullResult.Pulled
		result.Errors = append(result.Errors, pullResult.Errors...)
		result.Timestamp = pullResult.Timestamp
	}

	switch {
	case pushErr != nil || pullErr != nil:
		result.Result = Failure
	case len(result.Errors) == 0:
		result.Result = Success
	case result.Pushed > 0 || result.Pulled > 0:
		result.Result = Partial
	default:
		result.Result = Failure
	}

	if pushErr != nil {
		return result, pushErr
	}
	return result, pullErr
}
