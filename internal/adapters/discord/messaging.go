package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// Defer efímero (para trabajos >3s)
func DeferEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, log logger.Logger) error {
	err := s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Warn("[discord.reply] defer", "error", err)
	}
	return err
}

func ReplyEphemeral(s *discordgo.Session, ic *discordgo.InteractionCreate, log logger.Logger, content string) {
	_, err := s.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content:         content,
		Flags:           discordgo.MessageFlagsEphemeral,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err == nil {
		return
	}

	// Fallback sólo si todavía no hay respuesta (webhook desconocido)
	var reqErr *discordgo.RESTError
	if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == discordgo.ErrCodeUnknownWebhook {
		_ = s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}
	log.Warn("[discord.reply] followup", "error", err)
}
