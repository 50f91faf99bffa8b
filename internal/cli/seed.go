package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grocer-core-poc/server/internal/services/vectorsearch"
	"github.com/grocer-core-poc/server/internal/store"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var (
		skipVectors bool
		email       string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the synthetic grocery dataset into the stores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg

			db, err := cfg.SQLite.New(ctx)
			if err != nil {
				return fmt.Errorf("open sqlite: %w", err)
			}
			defer db.Close()

			seeder := &store.Seeder{DB: db, Index: cfg.Index}
			if !skipVectors {
				wc, err := cfg.Weaviate.New()
				if err != nil {
					return fmt.Errorf("create weaviate client: %w", err)
				}
				seeder.Indexer = vectorsearch.NewWeaviate(wc)
			}

			if email == "" {
				email = cfg.Email.Sender
			}
			if err := seeder.Seed(ctx, store.DefaultDataset(email)); err != nil {
				return err
			}
			logx.Info().Str("path", cfg.SQLite.Path).Bool("vectors", !skipVectors).Msg("Seed complete")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipVectors, "skip-vectors", false, "only seed the relational store")
	cmd.Flags().StringVar(&email, "email", "", "email address given to every seeded user (defaults to SENDER_EMAIL)")
	return cmd
}
