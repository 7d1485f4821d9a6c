package syncops

import (
	"path/filepath"
	"time"

	"github.com/minimem/minimem/internal/atomicfile"
	"github.com/minimem/minimem/internal/registry"
	"github.com/minimem/minimem/internal/syncstate"
)

// Push implements §4.10.2: local-only and local-modified files copy
// to the remote; remote-only files are skipped (push never deletes at
// the remote); unchanged files are a no-op.
func Push(localRoot, remoteRoot string, include, exclude []string, opts Options) (*Result, error) {
	return runDirectional("push", localRoot, remoteRoot, include, exclude, opts, pushPlan)
}

// pushPlan decides what to do with one path given its current local
// and remote hashes, returning the path's status, whether to copy it,
// and whether the local side is the copy's source.
func pushPlan(localHash, remoteHash string) (status syncstate.Status, doIt bool, srcIsLocal bool) {
	status = syncstate.Classify(localHash, remoteHash)
	switch status {
	case syncstate.LocalOnly, syncstate.LocalModified:
		return status, true, true
	default: // Unchanged, RemoteOnly
		return status, false, true
	}
}

type planFunc func(localHash, remoteHash string) (status syncstate.Status, doIt bool, srcIsLocal bool)

// runDirectional is push and pull's shared shape: load state,
// enumerate both sides, classify the union, copy where the plan says
// to, update state and the registry, and append a log entry.
func runDirectional(operation, localRoot, remoteRoot string, include, exclude []string, opts Options, plan planFunc) (*Result, error) {
	state, err := syncstate.Load(localRoot, opts.CentralSubPath)
	if err != nil {
		return nil, err
	}

	localPaths, err := syncstate.ListSyncable(localRoot, include, exclude)
	if err != nil {
		return nil, err
	}
	remotePaths, err := syncstate.ListSyncable(remoteRoot, include, exclude)
	if err != nil {
		return nil, err
	}

	union := unionSorted(localPaths, remotePaths)

	result := &Result{Operation: operation, Timestamp: time.Now().UTC()}
	var errs []string
	transferred := 0

	for _, rel := range union {
		localPath := filepath.Join(localRoot, filepath.FromSlash(rel))
		remotePath := filepath.Join(remoteRoot, filepath.FromSlash(rel))

		localHash, err := hashFile(localPath)
		if err != nil {
			errs = append(errs, rel+": "+err.Error())
			continue
		}
		remoteHash, err := hashFile(remotePath)
		if err != nil {
			errs = append(errs, rel+": "+err.Error())
			continue
		}

		_, doIt, srcIsLocal := plan(localHash, remoteHash)
		if !doIt {
			continue
		}

		// pull's plan additionally needs force/missing-local
		// information, folded in by the closure Pull passes as plan.
		if opts.DryRun {
			transferred++
			continue
		}

		var src, dst, newHash string
		if srcIsLocal {
			src, dst, newHash = localPath, remotePath, localHash
		} else {
			src, dst, newHash = remotePath, localPath, remoteHash
		}
		if err := atomicfile.CopyFile(src, dst, 0o644); err != nil {
			errs = append(errs, rel+": "+err.Error())
			continue
		}

		state.Files[rel] = syncstate.FileEntry{
			LocalHash:    newHash,
			RemoteHash:   newHash,
			LastModified: result.Timestamp,
		}
		transferred++
	}

	if operation == "push" {
		result.Pushed = transferred
	} else {
		result.Pulled = transferred
	}
	result.Errors = errs
	result.Result = classifyOutcome(transferred, len(union), errs)

	if opts.DryRun {
		return result, nil
	}

	if transferred > 0 {
		now := result.Timestamp
		state.LastSync = &now
		if err := syncstate.Save(localRoot, state); err != nil {
			return result, err
		}
		if opts.CentralRepoRoot != "" {
			updateRegistryLastSync(opts.CentralRepoRoot, opts.CentralSubPath, opts.MachineID, now)
		}
	}

	appendLog(localRoot, result)
	return result, nil
}

func classifyOutcome(transferred, total int, errs []string) Outcome {
	if len(errs) == 0 {
		return Success
	}
	if transferred > 0 {
		return Partial
	}
	return Failure
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sortStrings(out)
	return out
}

func updateRegistryLastSync(centralRoot, centralPath, machineID string, when time.Time) {
	_ = registry.WithLock(centralRoot, func() error {
		reg, err := registry.Load(centralRoot)
		if err != nil {
			return err
		}
		for i, m := range reg.Mappings {
			if m.CentralPath == registry.NormalizeCentralPath(centralPath) && m.MachineID == machineID {
				reg.Mappings[i].LastSync = &when
			}
		}
		return registry.Save(centralRoot, reg)
	})
}
