package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/logging"
	"github.com/minimem/minimem/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd builds the root cobra command. Deliberately thin per the
// spec's Non-goals: no JSON output modes, no config-layout commands.
// It exists so the daemon and sync loop are runnable from a shell.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "minimem",
		Short:   "File-backed semantic memory index for AI agents",
		Version: version.Short(),
	}
	cmd.SetVersionTemplate("minimem version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to <root>/.minimem/minimem.log (the daemon logs to ~/.minimem/daemon.log)")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(cmd *cobra.Command, _ []string) error {
	// The daemon is a long-lived background process with no attached
	// terminal, so it always gets a persistent log regardless of
	// --debug; every other command only logs to file when asked.
	if cmd.Name() == "daemon" {
		logger, cleanup, err := logging.Setup(logging.ForDaemon(debugMode))
		if err != nil {
			return fmt.Errorf("setup daemon logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		return nil
	}

	if !debugMode {
		return nil
	}

	// When the command operates on a memory root, log there instead of
	// the global daemon log, tagged by subcommand.
	cfg := logging.DebugConfig()
	if rootFlag, err := cmd.Flags().GetString("root"); err == nil && rootFlag != "" {
		cfg = logging.ForRoot(rootFlag, cmd.Name(), true)
	} else if discovered, err := resolveRoot(""); err == nil && discovered != "" {
		cfg = logging.ForRoot(discovered, cmd.Name(), true)
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("cli_debug_logging_enabled", slog.String("logFile", cfg.FilePath))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// resolveRoot returns explicitRoot if set, otherwise discovers the
// nearest memory root above the current directory.
func resolveRoot(explicitRoot string) (string, error) {
	if explicitRoot != "" {
		return explicitRoot, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := config.FindMemoryRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}
