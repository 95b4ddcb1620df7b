package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/message"
	"github.com/mikey/phishlens/internal/analysis"
	"github.com/mikey/phishlens/internal/core"
	"github.com/mikey/phishlens/internal/di"
	"github.com/mikey/phishlens/internal/ui"
)

type checkOptions struct {
	jsonOutput bool
	noColor    bool
}

func newCheckCmd(flags *di.CLIFlags) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Analyze a single URL or email without a browser",
	}
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print the verdict as JSON")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newCheckURLCmd(flags, opts), newCheckEmailCmd(flags, opts))
	return cmd
}

func newCheckURLCmd(flags *di.CLIFlags, opts *checkOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Analyze a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags, opts, "URL", func(client *analysis.Client) (core.AnalysisResult, error) {
				return client.AnalyzeURL(cmd.Context(), args[0])
			})
		},
	}
}

func newCheckEmailCmd(flags *di.CLIFlags, opts *checkOptions) *cobra.Command {
	var email core.EmailRecord
	var file string

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Analyze an email given by fields or as an RFC 822 message",
		Long: `Analyze an email. Either pass --sender, --subject and --body, or point
--file at a raw message ("-" reads stdin); flags override the parsed headers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			record := email
			if file != "" {
				parsed, err := readMessage(cmd, file)
				if err != nil {
					return err
				}
				record = mergeEmail(parsed, email)
			}
			return runCheck(cmd, flags, opts, "Email", func(client *analysis.Client) (core.AnalysisResult, error) {
				return client.AnalyzeEmail(cmd.Context(), record.Sender, record.Subject, record.Body)
			})
		},
	}

	cmd.Flags().StringVar(&email.Sender, "sender", "", "Sender address")
	cmd.Flags().StringVar(&email.Subject, "subject", "", "Subject line")
	cmd.Flags().StringVar(&email.Body, "body", "", "Body text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Raw RFC 822 message to analyze")
	return cmd
}

func runCheck(
	cmd *cobra.Command,
	flags *di.CLIFlags,
	opts *checkOptions,
	heading string,
	analyze func(*analysis.Client) (core.AnalysisResult, error),
) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return err
	}

	return container.Invoke(func(client *analysis.Client, logger *zap.Logger) error {
		defer logger.Sync()
		defer client.Close()

		result, err := analyze(client)
		if errors.Is(err, analysis.ErrEmptyInput) {
			return fmt.Errorf("nothing to analyze: %w", err)
		}
		if err != nil {
			// The verdict is still the configured fallback
			logger.Warn("Scorer call failed", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		if opts.jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		ui.NewRenderer(out, opts.noColor).RenderResult(heading, result)
		return nil
	})
}

func readMessage(cmd *cobra.Command, file string) (core.EmailRecord, error) {
	if file == "-" {
		return message.Parse(cmd.InOrStdin())
	}

	f, err := os.Open(file)
	if err != nil {
		return core.EmailRecord{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()
	return message.Parse(f)
}

// mergeEmail lets explicitly set fields win over parsed ones
func mergeEmail(parsed, override core.EmailRecord) core.EmailRecord {
	if override.Sender != "" {
		parsed.Sender = override.Sender
	}
	if override.Subject != "" {
		parsed.Subject = override.Subject
	}
	if override.Body != "" {
		parsed.Body = override.Body
	}
	return parsed
}
