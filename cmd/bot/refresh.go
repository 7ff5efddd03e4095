package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

// refresh no habla con Discord: avisa por NOTIFY y el bot que esté corriendo re-renderiza.
func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <queue-id>...",
		Short: "Ask running bots to re-render the displays of a queue",
		Args:  cobra.MinimumNArgs(1),
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

			for _, id := range args {
				if err := storage.Notify(cmd.Context(), db, id); err != nil {
					return fmt.Errorf("notify %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refresh requested for %s\n", id)
			}
			return nil
		},
	}
}
