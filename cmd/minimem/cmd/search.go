package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minimem/minimem/internal/engine"
	"github.com/minimem/minimem/internal/search"
)

func newSearchCmd() *cobra.Command {
	var root string
	var limit int
	var minScore float64
	var source string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid search over an indexed memory root",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, root, query, limit, minScore, source)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "memory root (defaults to the nearest MEMORY.md above the current directory)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum merged score to include a result")
	cmd.Flags().StringVar(&source, "source", "", "restrict results to this source tag")

	return cmd
}

func runSearch(cmd *cobra.Command, rootFlag, query string, limit int, minScore float64, source string) error {
	root, err := resolveRoot(rootFlag)
	if err != nil {
		return err
	}

	e, err := engine.Open(root)
	if err != nil {
		return fmt.Errorf("open memory root %s: %w", root, err)
	}
	defer e.Close()

	results, err := e.Search(cmd.Context(), query, search.Options{
		MaxResults: limit,
		MinScore:   minScore,
		Source:     source,
	})
	if err != nil {
		return fmt.Errorf("search %s: %w", root, err)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(out, "no results for %q\n", query)
		return nil
	}

	for i, r := range results {
		location := r.Path
		if r.StartLine > 0 {
			location = fmt.Sprintf("%s:%d-%d", r.Path, r.StartLine, r.EndLine)
		}
		fmt.Fprintf(out, "%d. %s (score: %.3f)\n", i+1, location, r.Score)
		for _, line := range strings.Split(r.Snippet, "\n") {
			fmt.Fprintf(out, "   %s\n", line)
		}
	}
	return nil
}
