package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/registry"
	"github.com/minimem/minimem/internal/syncops"
)

func newSyncCmd() *cobra.Command {
	var root, remote string
	var push, pull, force, dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push, pull, or bidirectionally sync a memory root against its central repo",
		Long: `Sync runs the last-write-wins sync contract (push never deletes at
the remote, pull never deletes locally) between a local memory root and its
central repo mapping. With neither --push nor --pull, it runs both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, root, remote, push, pull, force, dryRun)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "local memory root (defaults to the nearest MEMORY.md above the current directory)")
	cmd.Flags().StringVar(&remote, "remote", "", "remote root (defaults to <central-repo>/<centralSubPath> from config.json and the global config)")
	cmd.Flags().BoolVar(&push, "push", false, "push only")
	cmd.Flags().BoolVar(&pull, "pull", false, "pull only")
	cmd.Flags().BoolVar(&force, "force", false, "let pull overwrite a locally-modified file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify and report but perform no I/O")

	return cmd
}

func runSync(cmd *cobra.Command, rootFlag, remoteFlag string, push, pull, force, dryRun bool) error {
	root, err := resolveRoot(rootFlag)
	if err != nil {
		return err
	}

	syncCfg, err := config.LoadSyncConfig(root)
	if err != nil {
		return fmt.Errorf("load sync config for %s: %w", root, err)
	}

	remote := remoteFlag
	if remote == "" {
		remote, err = resolveRemoteRoot(syncCfg)
		if err != nil {
			return err
		}
	}

	machineID, err := config.MachineID()
	if err != nil {
		return fmt.Errorf("resolve machine id: %w", err)
	}

	opts := syncops.Options{
		DryRun:          dryRun,
		Force:           force,
		CentralRepoRoot: syncCfg.CentralRepo,
		CentralSubPath:  syncCfg.CentralSubPath,
		MachineID:       machineID,
	}

	var result *syncops.Result
	switch {
	case push && !pull:
		result, err = syncops.Push(root, remote, syncCfg.IncludeGlobs, syncCfg.ExcludeGlobs, opts)
	case pull && !push:
		result, err = syncops.Pull(root, remote, syncCfg.IncludeGlobs, syncCfg.ExcludeGlobs, opts)
	default:
		result, err = syncops.Bidirectional(root, remote, syncCfg.IncludeGlobs, syncCfg.ExcludeGlobs, opts)
	}
	if err != nil {
		return fmt.Errorf("sync %s <-> %s: %w", root, remote, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s (pushed %d, pulled %d)\n", result.Operation, result.Result, result.Pushed, result.Pulled)
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  error: %s\n", e)
	}
	return nil
}

// resolveRemoteRoot mirrors internal/daemon's remoteRootFor: the
// central repo comes from the global config unless config.json already
// names one explicitly.
func resolveRemoteRoot(syncCfg config.SyncConfig) (string, error) {
	centralRepo := syncCfg.CentralRepo
	if centralRepo == "" {
		g, err := config.LoadGlobalConfig()
		if err != nil {
			return "", fmt.Errorf("load global config: %w", err)
		}
		centralRepo = g.CentralRepo
	}
	if centralRepo == "" || syncCfg.CentralSubPath == "" {
		return "", fmt.Errorf("no central repo configured; pass --remote or set centralRepo/centralSubPath in .minimem/config.json")
	}
	sub := strings.TrimSuffix(registry.NormalizeCentralPath(syncCfg.CentralSubPath), "/")
	return filepath.Join(centralRepo, sub), nil
}
