package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/registry"
	"github.com/minimem/minimem/internal/validator"
)

func newValidateCmd() *cobra.Command {
	var central string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the registry for collisions, staleness, missing checkouts, and orphans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, central)
		},
	}

	cmd.Flags().StringVar(&central, "central", "", "central repo root (defaults to the global config's central repo)")

	return cmd
}

func runValidate(cmd *cobra.Command, centralFlag string) error {
	central := centralFlag
	if central == "" {
		g, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("load global config: %w", err)
		}
		central = g.CentralRepo
	}
	if central == "" {
		return fmt.Errorf("no central repo configured; pass --central or set one via the global config")
	}

	machineID, err := config.MachineID()
	if err != nil {
		return fmt.Errorf("resolve machine id: %w", err)
	}

	reg, err := registry.Load(central)
	if err != nil {
		return fmt.Errorf("load registry at %s: %w", central, err)
	}

	report := validator.Validate(reg, machineID, central, time.Now())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "valid: %t (active: %d, stale: %d, collisions: %d, missing: %d)\n",
		report.Valid, report.Stats.Active, report.Stats.Stale, report.Stats.Collisions, report.Stats.Missing)
	for _, issue := range report.Issues {
		fmt.Fprintf(out, "  [%s] %s: %s\n", issue.Severity, issue.Kind, issue.CentralPath)
		if issue.Detail != "" {
			fmt.Fprintf(out, "    %s\n", issue.Detail)
		}
	}
	return nil
}
