package cli

import (
	"github.com/spf13/cobra"

	"github.com/grocer-core-poc/server/internal/config"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

type rootOptions struct {
	envFile string
	cfg     *config.App
}

// NewRootCommand builds the grocer command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "grocer",
		Short:         "Retail grocery assistant agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Output: cmd.ErrOrStderr()})
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(
		newServeCommand(opts),
		newChatCommand(opts),
		newSeedCommand(opts),
	)
	return cmd
}
