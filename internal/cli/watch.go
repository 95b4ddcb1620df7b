package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/browser"
	"github.com/mikey/phishlens/internal/analysis"
	"github.com/mikey/phishlens/internal/controller"
	"github.com/mikey/phishlens/internal/di"
	"github.com/mikey/phishlens/internal/ui"
)

func newWatchCmd(flags *di.CLIFlags) *cobra.Command {
	var openURL string
	var noColor bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the active browser tab and show live verdicts",
		Long: `Attach to Chrome over the DevTools protocol and follow the active tab.
Start Chrome with --remote-debugging-port=9222 and pass --control-url
http://127.0.0.1:9222, or use --launch to start a browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return err
			}

			return container.Invoke(func(
				ctrl *controller.Controller,
				b *browser.Browser,
				client *analysis.Client,
				logger *zap.Logger,
			) error {
				defer logger.Sync()
				defer b.Close()
				defer client.Close()
				defer ctrl.Close()

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if openURL != "" {
					if _, err := b.OpenTab(ctx, openURL); err != nil {
						return err
					}
				}

				if err := ctrl.Start(); err != nil {
					return err
				}

				console := ui.NewConsole(ctrl, cmd.InOrStdin(), cmd.OutOrStdout(), noColor, logger.With(zap.String("component", "console")))
				err := console.Run(ctx)
				if errors.Is(err, ctx.Err()) {
					logger.Info("Shutting down")
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&flags.ControlURL, "control-url", "", "DevTools URL of a running browser")
	cmd.Flags().BoolVar(&flags.Launch, "launch", false, "Launch a browser instead of attaching to one")
	cmd.Flags().BoolVar(&flags.Headed, "headed", false, "Show the launched browser window")
	cmd.Flags().StringVar(&openURL, "open", "", "Open this URL in a new tab before watching")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
