package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/daemon"
)

func newDaemonCmd() *cobra.Command {
	var central, home string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the long-lived watcher/sync daemon for this machine",
		Long: `The daemon watches every memory root this machine owns in the
registry, auto-pushes on local changes and auto-pulls on a poll interval when
a root's config.json enables sync and autosync, and re-validates the
registry periodically. It runs in the foreground; stop it with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, central, home)
		},
	}

	cmd.Flags().StringVar(&central, "central", "", "central repo root (defaults to the global config's central repo)")
	cmd.Flags().StringVar(&home, "home", "", "home directory for the daemon PID file (defaults to $HOME)")

	return cmd
}

func runDaemon(cmd *cobra.Command, centralFlag, homeFlag string) error {
	machineID, err := config.MachineID()
	if err != nil {
		return fmt.Errorf("resolve machine id: %w", err)
	}

	central := centralFlag
	if central == "" {
		g, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("load global config: %w", err)
		}
		central = g.CentralRepo
	}

	home := homeFlag
	if home == "" {
		home, err = os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
	}

	d := daemon.New(daemon.Options{
		HomeDir:         home,
		CentralRepoRoot: central,
		MachineID:       machineID,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "minimem daemon starting, press Ctrl+C to stop")
	return d.Run(ctx)
}
