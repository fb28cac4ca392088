package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fctl/internal/adapters/logging"
	"github.com/felixgeelhaar/fctl/internal/app"
	"github.com/felixgeelhaar/fctl/internal/domain/config"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
	"github.com/felixgeelhaar/fctl/internal/domain/reconcile"
	"github.com/felixgeelhaar/fctl/internal/ports"
)

var (
	// Global flags
	rootFlag string
	verbose  bool
	jsonLogs bool
	yesFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "fctl",
	Short: "Deployment harness for the x402 payment facilitator",
	Long: `Fctl provisions, deploys, and operates a self-hosted x402 payment
facilitator stack (facilitator service behind a Caddy proxy).

Installation runs as a resumable step sequence: every completed step
leaves a durable marker, so an interrupted run picks up where it
stopped. Config edits are applied with 'fctl reload', which restarts
only the services whose files actually changed.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "deploy root (default: $FCTL_ROOT or "+config.DefaultDeployRoot+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "log in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "auto-confirm all prompts")

	// Register flag completions
	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// newHarness builds the application harness behind every command. Test
// code swaps this variable to inject a harness over mock adapters.
var newHarness = func(out io.Writer) *app.Harness {
	opts := []logging.ConsoleLoggerOption{
		logging.WithJSONFormat(jsonLogs),
	}
	if verbose {
		opts = append(opts, logging.WithLevel(ports.LevelDebug))
	}
	h := app.NewHarness(out, logging.NewConsoleLogger(opts...))
	if rootFlag != "" {
		h = h.WithRoot(rootFlag)
	}
	return h
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the operator message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}

	var stepErr *install.Error
	if errors.As(err, &stepErr) {
		msg := stepErr.Message
		if stepErr.Step != "" {
			msg = fmt.Sprintf("step %d (%s): %s", stepErr.Ordinal, stepErr.Step, stepErr.Message)
		}
		if stepErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", stepErr.Suggestion)
		}
		if verbose && stepErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", stepErr.Underlying)
		}
		return msg
	}

	var restartErr *reconcile.RestartError
	if errors.As(err, &restartErr) {
		msg := restartErr.Error()
		if verbose {
			for svc, cause := range restartErr.Failed {
				msg += fmt.Sprintf("\n  %s: %v", svc, cause)
			}
		}
		return msg
	}

	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	// Complete --root with directories
	_ = rootCmd.RegisterFlagCompletionFunc("root", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}
