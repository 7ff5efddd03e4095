package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/app/render"
	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
)

// permisos mínimos para mantener un display en un canal
const postPerms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks

// Platform implementa service.Platform sobre una sesión de discordgo.
// Lee primero del State y recién después va a REST.
type Platform struct {
	s      *discordgo.Session
	emojis *EmojiResolver
	log    logger.Logger
}

func NewPlatform(s *discordgo.Session, emojis *EmojiResolver, log logger.Logger) *Platform {
	if log == nil {
		log = logger.Nop()
	}
	if emojis == nil {
		emojis = NewEmojiResolver(s, nil)
	}
	return &Platform{s: s, emojis: emojis, log: log}
}

func (p *Platform) Channel(ctx context.Context, channelID string) (domain.Channel, error) {
	ch, err := p.channel(ctx, channelID)
	if err != nil {
		return domain.Channel{}, err
	}
	return domain.Channel{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name, Kind: kindOf(ch.Type)}, nil
}

func (p *Platform) channel(ctx context.Context, id string) (*discordgo.Channel, error) {
	if ch, err := p.s.State.Channel(id); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := p.s.Channel(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	_ = p.s.State.ChannelAdd(ch)
	return ch, nil
}

func (p *Platform) Message(ctx context.Context, channelID, messageID string) error {
	_, err := p.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	return classify(err)
}

func (p *Platform) CanPost(ctx context.Context, channelID string) (bool, error) {
	me := p.s.State.User.ID
	perms, err := p.s.State.UserChannelPermissions(me, channelID)
	if err != nil {
		perms, err = p.s.UserChannelPermissions(me, channelID, discordgo.WithContext(ctx))
		if err != nil {
			return false, classify(err)
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&postPerms == postPerms, nil
}

func (p *Platform) SendDisplay(ctx context.Context, channelID string, doc render.Document, ctl *render.Control) (string, error) {
	msg, err := p.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{toEmbed(doc)},
		Components:      components(ctl),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	return msg.ID, nil
}

func (p *Platform) EditDisplay(ctx context.Context, channelID, messageID string, doc render.Document, ctl *render.Control) error {
	_, err := p.s.ChannelMessageEditComplex(displayEdit(channelID, messageID, doc, ctl), discordgo.WithContext(ctx))
	if err != nil {
		logRateLimit(p.log, err)
	}
	return classify(err)
}

// displayEdit no habilita menciones, igual que el envío inicial.
func displayEdit(channelID, messageID string, doc render.Document, ctl *render.Control) *discordgo.MessageEdit {
	em := []*discordgo.MessageEmbed{toEmbed(doc)}
	cc := components(ctl)
	return &discordgo.MessageEdit{
		Channel:         channelID,
		ID:              messageID,
		Embeds:          &em,
		Components:      &cc,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return classify(p.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)))
}

// StripControls deja el mensaje viejo como historial, sin botones.
func (p *Platform) StripControls(ctx context.Context, channelID, messageID string) error {
	cc := []discordgo.MessageComponent{}
	_, err := p.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &cc,
	}, discordgo.WithContext(ctx))
	return classify(err)
}

func (p *Platform) MemberName(ctx context.Context, guildID, memberID string) (string, error) {
	if m, err := p.s.State.Member(guildID, memberID); err == nil && m != nil && m.User != nil {
		return m.DisplayName(), nil
	}
	m, err := p.s.GuildMember(guildID, memberID, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err)
	}
	_ = p.s.State.MemberAdd(m)
	return m.DisplayName(), nil
}

func (p *Platform) Icons(guildID string) render.IconResolver {
	return p.emojis.For(guildID)
}

func kindOf(t discordgo.ChannelType) domain.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return domain.ChannelVoice
	default:
		return domain.ChannelText
	}
}

// classify: 403/404 de Discord significa que la superficie ya no es alcanzable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Response != nil {
		switch re.Response.StatusCode {
		case http.StatusNotFound, http.StatusForbidden:
			return fmt.Errorf("%w: %w", domain.ErrSurfaceGone, err)
		}
	}
	return err
}

func logRateLimit(log logger.Logger, err error) {
	var re *discordgo.RESTError
	if !errors.As(err, &re) || re.Response == nil || re.Response.StatusCode != http.StatusTooManyRequests {
		return
	}
	log.Warn("[discord.edit] rate limited",
		"retry_after", re.Response.Header.Get("Retry-After"),
		"bucket", re.Response.Header.Get("X-RateLimit-Bucket"),
	)
}
