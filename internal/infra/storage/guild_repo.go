package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jose-valero/queue-display-bot/internal/domain"
)

type GuildRepo struct{ db *sql.DB }

func NewGuildRepo(db *sql.DB) *GuildRepo { return &GuildRepo{db: db} }

func (r *GuildRepo) Get(ctx context.Context, guildID string) (domain.GuildConfig, error) {
	var (
		g    domain.GuildConfig
		mode int
		ts   string
	)
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, msg_mode, disable_mentions, timestamps
  FROM guild_settings
 WHERE guild_id = $1
`, guildID).Scan(&g.GuildID, &mode, &g.DisableMentions, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		// crea default
		_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_settings (guild_id) VALUES ($1)
ON CONFLICT (guild_id) DO NOTHING
`, guildID)
		if err != nil {
			return domain.GuildConfig{}, err
		}
		return r.Get(ctx, guildID)
	}
	if err != nil {
		return domain.GuildConfig{}, err
	}
	g.Mode = domain.UpdateMode(mode)
	g.Timestamps = domain.TimestampMode(ts)
	return g, nil
}

func (r *GuildRepo) Update(ctx context.Context, guildID string, u GuildConfigUpdate) (domain.GuildConfig, error) {
	// asegura que exista la fila
	if _, err := r.Get(ctx, guildID); err != nil {
		return domain.GuildConfig{}, err
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	i := 1

	if u.Mode != nil {
		sets = append(sets, fmt.Sprintf("msg_mode = $%d", i))
		args = append(args, *u.Mode)
		i++
	}
	if u.DisableMentions != nil {
		sets = append(sets, fmt.Sprintf("disable_mentions = $%d", i))
		args = append(args, *u.DisableMentions)
		i++
	}
	if u.Timestamps != nil {
		sets = append(sets, fmt.Sprintf("timestamps = $%d", i))
		args = append(args, *u.Timestamps)
		i++
	}
	if len(sets) == 0 {
		// nada que cambiar
		return r.Get(ctx, guildID)
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now())
	i++

	args = append(args, guildID)

	_, err := r.db.ExecContext(ctx, `
UPDATE guild_settings
   SET `+strings.Join(sets, ", ")+`
 WHERE guild_id = $`+fmt.Sprint(i), args...)
	if err != nil {
		return domain.GuildConfig{}, err
	}
	return r.Get(ctx, guildID)
}
