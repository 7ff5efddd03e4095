package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync(log)

			db, err := storage.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			v, err := storage.Version(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Info("[migrate] done", "version", v)
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}
