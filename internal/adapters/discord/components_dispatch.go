package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/app/render"
	"github.com/jose-valero/queue-display-bot/internal/app/service"
	"github.com/jose-valero/queue-display-bot/internal/domain"
)

func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()
	uid := userID(ic)

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("[discord.component] panic", "custom_id", data.CustomID, "panic", rec)
			ReplyEphemeral(s, ic, r.log, "⚠️ Something went wrong.")
		}
	}()

	switch data.CustomID {
	case render.JoinLeaveID:
		_ = DeferEphemeral(s, ic, r.log)
		defer step(r.log, "component.joinLeave")()

		if !r.clickLimiter.Allow(uid) {
			ReplyEphemeral(s, ic, r.log, "⏳ Slow down a second…")
			return
		}
		if ic.Message == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()

		q, joined, err := r.toggler.ToggleFromMessage(ctx, ic.Message.ID, uid)
		if errors.Is(err, domain.ErrNotFound) {
			ReplyEphemeral(s, ic, r.log, "⚠️ This display is no longer linked to a queue.")
			return
		}
		if err != nil && !errors.Is(err, service.ErrQueueLocked) && !errors.Is(err, service.ErrQueueFull) {
			r.log.Warn("[discord.component] toggle", "message_id", ic.Message.ID, "error", err)
		}
		ReplyEphemeral(s, ic, r.log, service.Reply(q, joined, err))
	}
}
