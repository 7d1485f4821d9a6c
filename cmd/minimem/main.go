// Command minimem is the thin CLI entrypoint over the memory-index core:
// index, search, sync, daemon, and validate, wiring flags straight to
// internal/engine, internal/syncops, internal/daemon, and
// internal/validator.
package main

import (
	"fmt"
	"os"

	"github.com/minimem/minimem/cmd/minimem/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
