// Package cli implements the cropctl command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/cropadvisor/internal/config"
	"github.com/okian/cropadvisor/pkg/logger"
)

// NewRootCommand builds the cropctl command tree. Log output goes to stderr so
// command output on stdout stays clean.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)

	root := &cobra.Command{
		Use:           "cropctl",
		Short:         "Recommend crops and fertilizers from soil readings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				if err := os.Setenv(config.EnvConfig, cfgFile); err != nil {
					return fmt.Errorf("set %s: %w", config.EnvConfig, err)
				}
			}
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newPredictCommand())
	root.AddCommand(newSmokeCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command with args and returns the process exit code.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
