package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/adapters/mockscorer"
	"github.com/mikey/phishlens/internal/config"
	"github.com/mikey/phishlens/internal/di"
)

const shutdownTimeout = 5 * time.Second

func newMockScorerCmd(flags *di.CLIFlags) *cobra.Command {
	var listen, rules string

	cmd := &cobra.Command{
		Use:   "mock-scorer",
		Short: "Serve a local stand-in for the scoring service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return err
			}

			if err := container.Invoke(func(cfg *config.Config) {
				if listen != "" {
					cfg.Set("mock_scorer.listen_address", listen)
				}
				if rules != "" {
					cfg.Set("mock_scorer.rules_file", rules)
				}
			}); err != nil {
				return err
			}

			return container.Invoke(func(server *mockscorer.Server, cfg *config.Config, logger *zap.Logger) error {
				defer logger.Sync()

				if err := server.Start(cfg.GetMockScorer().ListenAddress); err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				<-ctx.Done()

				logger.Info("Mock scorer stopping")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Stop(shutdownCtx)
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from mock_scorer.listen_address)")
	cmd.Flags().StringVar(&rules, "rules", "", "YAML rules file (default from mock_scorer.rules_file)")
	return cmd
}
