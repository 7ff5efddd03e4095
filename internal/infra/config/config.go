package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	DiscordGuild string // opcional: registra los slash commands sólo en ese guild
	RedisURL     string // vacío = cola en memoria
	HTTPAddr     string
	EventsSecret string

	RankingAPIKey  string
	RankingBaseURL string // vacío = sin /rankname ni refresco de ranks
	RankRefresh    time.Duration

	RefreshWorkers  int
	RefreshDebounce time.Duration

	LogLevel  string
	LogFormat string

	TierEmojis map[string]string // tier -> emoji renderizable
}

// Load lee .env (si existe) y después las variables de entorno.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("RANK_REFRESH_EVERY", "10m")
	v.SetDefault("REFRESH_WORKERS", 4)
	v.SetDefault("REFRESH_DEBOUNCE", "250ms")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	cfg := Config{
		DatabaseURL:     v.GetString("DATABASE_URL"),
		DiscordToken:    v.GetString("DISCORD_BOT_TOKEN"),
		DiscordGuild:    v.GetString("DISCORD_GUILD_ID"),
		RedisURL:        v.GetString("REDIS_URL"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		EventsSecret:    v.GetString("EVENTS_SECRET"),
		RankingAPIKey:   v.GetString("RANKING_API_KEY"),
		RankingBaseURL:  v.GetString("RANKING_BASE_URL"),
		RankRefresh:     v.GetDuration("RANK_REFRESH_EVERY"),
		RefreshWorkers:  v.GetInt("REFRESH_WORKERS"),
		RefreshDebounce: v.GetDuration("REFRESH_DEBOUNCE"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
	}

	emojis, err := parseTierEmojis(v.GetString("TIER_EMOJIS"))
	if err != nil {
		return Config{}, err
	}
	cfg.TierEmojis = emojis

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("faltante env DATABASE_URL"))
	}
	if c.DiscordToken == "" {
		errs = append(errs, errors.New("faltante env DISCORD_BOT_TOKEN"))
	}
	if c.RefreshWorkers <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_WORKERS must be > 0, got %d", c.RefreshWorkers))
	}
	if c.RefreshDebounce < 0 || c.RankRefresh < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}

// parseTierEmojis: "gold1=<:gold1:123>,champions=<:champ:456>"
func parseTierEmojis(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tier, emoji, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(tier) == "" || strings.TrimSpace(emoji) == "" {
			return nil, fmt.Errorf("TIER_EMOJIS: bad entry %q", pair)
		}
		out[strings.ToLower(strings.TrimSpace(tier))] = strings.TrimSpace(emoji)
	}
	return out, nil
}
