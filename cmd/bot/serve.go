package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/queue-display-bot/internal/adapters/discord"
	"github.com/jose-valero/queue-display-bot/internal/adapters/httpapi"
	"github.com/jose-valero/queue-display-bot/internal/adapters/ranking"
	"github.com/jose-valero/queue-display-bot/internal/app/service"
	"github.com/jose-valero/queue-display-bot/internal/app/worker"
	"github.com/jose-valero/queue-display-bot/internal/infra/config"
	"github.com/jose-valero/queue-display-bot/internal/infra/events"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
	"github.com/jose-valero/queue-display-bot/internal/infra/metrics"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, refresh workers and the ops HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync(log)
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log logger.Logger) error {
	// DB
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info("[serve] db ready")

	// Repos
	queueRepo := storage.NewQueueRepo(db)
	displayRepo := storage.NewDisplayRepo(db)
	guildRepo := storage.NewGuildRepo(db)
	rankRepo := storage.NewRankRepo(db)
	scheduleRepo := storage.NewScheduleRepo(db)

	// Cola de refresh
	queue, err := events.Open(ctx, cfg.RedisURL, events.DefaultKey)
	if err != nil {
		return err
	}
	defer queue.Close()

	// Métricas
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	// Discord session
	s, err := discordgo.New(botToken(cfg.DiscordToken))
	if err != nil {
		return err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildEmojis

	emojis := discord.NewEmojiResolver(s, cfg.TierEmojis)
	platform := discord.NewPlatform(s, emojis, log)

	// Services
	displaySvc := service.NewDisplayService(service.DisplayDeps{
		Platform:  platform,
		Queues:    queueRepo,
		Displays:  displayRepo,
		Guilds:    guildRepo,
		Ranks:     rankRepo,
		Schedules: scheduleRepo,
		Metrics:   rec,
		Log:       log,
	})
	displaySvc.SetValidator(service.NewValidationService(platform, queueRepo, displayRepo, queue, log))
	queueSvc := service.NewQueueService(queueRepo, displayRepo, queue)

	var rankSvc *service.RankService
	deps := discord.Deps{
		Displays: displaySvc,
		Toggler:  queueSvc,
		Bindings: displayRepo,
		Queues:   queueRepo,
		Settings: guildRepo,
		Pub:      queue,
		Emojis:   emojis,
		Log:      log,
	}
	if cfg.RankingBaseURL != "" {
		rankSvc = service.NewRankService(ranking.New(cfg.RankingAPIKey, cfg.RankingBaseURL), rankRepo, queueRepo, queue, log)
		deps.Ranks = rankSvc
	}

	// Router
	r := discord.NewRouter(s, cfg.DiscordGuild, deps)
	r.Handlers()
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()
	log.Info("[serve] connected", "user", s.State.User.Username, "user_id", s.State.User.ID)
	if err := r.Register(); err != nil {
		return err
	}
	log.Info("[serve] commands registered", "guild_id", cfg.DiscordGuild)

	pool := worker.New(queue, displaySvc, worker.Config{Workers: cfg.RefreshWorkers, Debounce: cfg.RefreshDebounce}, log)
	listener := storage.NewListener(cfg.DatabaseURL, log)
	web := httpapi.New(queue, rec, httpapi.Options{
		Secret:  cfg.EventsSecret,
		Metrics: metrics.Handler(reg),
		DB:      db,
		Log:     log,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(ctx) })
	g.Go(func() error {
		return listener.Run(ctx, func(queueID string) {
			if err := queue.Publish(ctx, queueID); err != nil {
				log.Warn("[listener] publish", "queue_id", queueID, "error", err)
			}
		})
	})
	g.Go(func() error { return web.Start(ctx, cfg.HTTPAddr) })
	if rankSvc != nil && cfg.RankRefresh > 0 {
		g.Go(func() error { return rankLoop(ctx, rankSvc, cfg.RankRefresh, log) })
	}

	err = g.Wait()
	if errors.Is(err, events.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func rankLoop(ctx context.Context, svc *service.RankService, every time.Duration, log logger.Logger) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := svc.RefreshAll(ctx)
			if err != nil {
				log.Warn("[rank.refresh] failed", "error", err)
				continue
			}
			log.Debug("[rank.refresh] done", "updated", n)
		}
	}
}

func botToken(raw string) string {
	auth := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	return auth
}
