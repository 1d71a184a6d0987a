package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"archivist/internal/application"
	"archivist/internal/config"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	configPath string
	archiveDir string
	verbose    bool

	current *app
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Personal archive coordination",
	Long: `archivist keeps the next-actions queue of a personal archive in step
with incoming mail and the communication triage list.

It ingests new mail into the queue, manages actions and triage items,
drafts replies, searches contacts and mail, and serves the same
operations over HTTP and MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if configPath != "" {
			os.Setenv("ARCHIVIST_CONFIG", configPath)
		}
		if archiveDir != "" {
			os.Setenv("ARCHIVE_DIR", archiveDir)
		}

		cfg, err := config.Load()
		if err != nil {
			return usageError{err}
		}
		current = newApp(cfg, config.Logger(verbose))
		return nil
	},
}

// usageError marks a failure caused by how the command was invoked
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// Execute runs the root command and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if current != nil {
		ctx, cancel := context.WithTimeout(context.Background(), current.cfg.Timeouts.GitPush+current.cfg.Timeouts.GitCommit)
		current.close(ctx)
		cancel()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("error:"), err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ue), application.IsValidation(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default <archive>/archivist.yaml)")
	rootCmd.PersistentFlags().StringVarP(&archiveDir, "archive", "a", "", "archive root (overrides ARCHIVE_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
}

// args wraps a cobra positional validator so its failures exit with ExitUsage
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError{err}
		}
		return nil
	}
}
