package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/app/service"
	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

func (r *Router) handleSlash(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.ApplicationCommandData()
	log := r.log.With("command", data.Name, "guild_id", ic.GuildID, "user_id", userID(ic))
	log.Debug("[discord.slash]")

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("[discord.slash] panic", "panic", rec)
			ReplyEphemeral(s, ic, r.log, "⚠️ Something went wrong.")
		}
	}()

	_ = DeferEphemeral(s, ic, r.log)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	var (
		msg string
		err error
	)
	switch data.Name {
	case "display":
		if !canManage(s, ic) {
			ReplyEphemeral(s, ic, r.log, "🔒 You need Manage Channels for this.")
			return
		}
		msg, err = r.displayCommand(ctx, ic, data)
	case "rankname":
		msg, err = r.rankCommand(ctx, ic, data)
	default:
		return
	}
	if err != nil {
		log.Warn("[discord.slash] failed", "error", err)
		if msg == "" {
			msg = "Could not complete the command."
		}
		msg = "⚠️ " + msg
	}
	ReplyEphemeral(s, ic, r.log, msg)
}

func (r *Router) displayCommand(ctx context.Context, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) (string, error) {
	sub, opts := subcommand(data)

	if sub == "settings" {
		return r.settingsCommand(ctx, ic.GuildID, opts)
	}

	queueID, _ := optStr(opts, "queue")
	q, err := r.queues.Get(ctx, queueID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && q.GuildID != ic.GuildID) {
		return "❌ Unknown queue `" + queueID + "`.", nil
	}
	if err != nil {
		return "", err
	}

	switch sub {
	case "attach":
		channelID, ok := optChannel(opts, "channel")
		if !ok {
			channelID = ic.ChannelID
		}
		err := r.displays.Attach(ctx, q.ID, channelID)
		if errors.Is(err, service.ErrCannotPost) || errors.Is(err, domain.ErrSurfaceGone) {
			return "❌ I can't post embeds in <#" + channelID + ">.", nil
		}
		if err != nil {
			return "Could not attach the display.", err
		}
		return "✅ Display for **" + q.Name + "** posted in <#" + channelID + ">.", nil

	case "detach":
		channelID, _ := optChannel(opts, "channel")
		n, err := r.displays.Detach(ctx, q.ID, channelID)
		if err != nil {
			return "Could not detach.", err
		}
		if n == 0 {
			return "ℹ️ No displays to remove.", nil
		}
		return fmt.Sprintf("✅ Removed %d display(s) of **%s**.", n, q.Name), nil

	case "refresh":
		if err := r.displays.Refresh(ctx, q.ID); err != nil {
			return "Could not refresh.", err
		}
		return "🔄 Refreshed **" + q.Name + "**.", nil
	}
	return "Use `/display attach|detach|refresh|settings`.", nil
}

func (r *Router) settingsCommand(ctx context.Context, guildID string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	var u storage.GuildConfigUpdate
	if v, ok := optInt(opts, "mode"); ok {
		u.Mode = &v
	}
	if v, ok := optBool(opts, "disable_mentions"); ok {
		u.DisableMentions = &v
	}
	if v, ok := optStr(opts, "timestamps"); ok {
		u.Timestamps = &v
	}
	cfg, err := r.settings.Update(ctx, guildID, u)
	if err != nil {
		return "Could not update settings.", err
	}
	return describeSettings(cfg), nil
}

func describeSettings(cfg domain.GuildConfig) string {
	return fmt.Sprintf("**Mode:** %s\n**Mentions:** %s\n**Timestamps:** %s",
		cfg.Mode, onOff(!cfg.DisableMentions), cfg.Timestamps)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (r *Router) rankCommand(ctx context.Context, ic *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) (string, error) {
	if r.ranks == nil {
		return "ℹ️ Rank lookups are not enabled on this bot.", nil
	}
	uid := userID(ic)
	sub, opts := subcommand(data)
	switch sub {
	case "set":
		name, _ := optStr(opts, "name")
		return r.ranks.Link(ctx, ic.GuildID, uid, name)
	case "clear":
		return r.ranks.Clear(ctx, ic.GuildID, uid)
	case "show":
		return r.ranks.Show(ctx, ic.GuildID, uid)
	}
	return "Use `/rankname set|clear|show`.", nil
}
