// Package cli is the phishlens command tree
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mikey/phishlens/internal/di"
)

var version = "dev"

// Execute builds the root command tree and runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	flags := &di.CLIFlags{}

	rootCmd := &cobra.Command{
		Use:           "phishlens",
		Short:         "Phishing risk verdicts for the active browser tab and open webmail",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("phishlens version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: search /etc/phishlens, ~/.phishlens, ./configs, .)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.Provider, "provider", "", "Scorer provider (http, openai, gemini, bedrock)")
	pf.StringVar(&flags.ScorerURL, "scorer-url", "", "Base URL of the scoring service")
	pf.StringVar(&flags.FailureStatus, "failure-status", "", "Verdict used when the scorer fails (safe, unavailable)")

	rootCmd.AddCommand(
		newWatchCmd(flags),
		newCheckCmd(flags),
		newMockScorerCmd(flags),
	)

	return rootCmd
}
