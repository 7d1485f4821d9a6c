package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minimem/minimem/internal/engine"
)

func newIndexCmd() *cobra.Command {
	var root string
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index MEMORY.md and memory/*.md under a memory root",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, root, force)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "memory root (defaults to the nearest MEMORY.md above the current directory)")
	cmd.Flags().BoolVar(&force, "force", false, "re-chunk and re-store every file even if unchanged (cached embeddings are still reused)")

	return cmd
}

func runIndex(cmd *cobra.Command, rootFlag string, force bool) error {
	root, err := resolveRoot(rootFlag)
	if err != nil {
		return err
	}

	e, err := engine.Open(root)
	if err != nil {
		return fmt.Errorf("open memory root %s: %w", root, err)
	}
	defer e.Close()

	result, err := e.Sync(cmd.Context(), force)
	if err != nil {
		return fmt.Errorf("index %s: %w", root, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "indexed %s: %d files, %d chunks (%d processed, %d created, %d stale removed)\n",
		root, result.FileCount, result.ChunkCount, result.Processed, result.Created, result.Removed)
	return nil
}
