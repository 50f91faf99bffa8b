package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grocer-core-poc/server/internal/agent"
	"github.com/grocer-core-poc/server/internal/server"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversation entry point over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := agent.New(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					logx.Warn().Err(err).Msg("Error closing agent dependencies")
				}
			}()

			return server.New(opts.cfg.Server, svc, opts.cfg.Env()).Run(ctx)
		},
	}
}
