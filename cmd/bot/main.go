package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jose-valero/queue-display-bot/internal/infra/config"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "queue-display-bot",
		Short:         "Live queue displays for Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd(), newRefreshCmd())
	// sin subcomando = serve
	root.RunE = serve.RunE
	return root
}

// setup carga config y logger; lo comparten todos los subcomandos.
func setup() (config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}
