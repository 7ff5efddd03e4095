package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/domain"
	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

// Lo implementa service.DisplayService
type Displays interface {
	Attach(ctx context.Context, queueID, channelID string) error
	Detach(ctx context.Context, queueID, channelID string) (int, error)
	Refresh(ctx context.Context, queueID string) error
}

// Lo implementa service.QueueService
type Toggler interface {
	ToggleFromMessage(ctx context.Context, messageID, memberID string) (domain.Queue, bool, error)
}

// Lo implementa service.RankService
type Ranks interface {
	Link(ctx context.Context, guildID, memberID, accountName string) (string, error)
	Clear(ctx context.Context, guildID, memberID string) (string, error)
	Show(ctx context.Context, guildID, memberID string) (string, error)
}

// Lo implementa storage.DisplayRepo
type Bindings interface {
	ListByChannel(ctx context.Context, channelID string) ([]domain.DisplayTarget, error)
	GetByMessage(ctx context.Context, messageID string) (domain.DisplayTarget, error)
	Delete(ctx context.Context, queueID, channelID string) (int64, error)
	DeleteByMessage(ctx context.Context, messageID string) (int64, error)
}

type Queues interface {
	Get(ctx context.Context, queueID string) (domain.Queue, error)
}

// Lo implementa storage.GuildRepo
type Settings interface {
	Update(ctx context.Context, guildID string, u storage.GuildConfigUpdate) (domain.GuildConfig, error)
}

type Publisher interface {
	Publish(ctx context.Context, queueID string) error
}

type Deps struct {
	Displays Displays
	Toggler  Toggler
	Ranks    Ranks // nil = /rankname deshabilitado
	Bindings Bindings
	Queues   Queues
	Settings Settings
	Pub      Publisher
	Emojis   *EmojiResolver
	Log      logger.Logger
}

type Router struct {
	s       *discordgo.Session
	guildID string // "" = comandos globales
	log     logger.Logger

	displays Displays
	toggler  Toggler
	ranks    Ranks
	bindings Bindings
	queues   Queues
	settings Settings
	pub      Publisher
	emojis   *EmojiResolver

	clickLimiter *userLimiter
}

func NewRouter(s *discordgo.Session, guildID string, d Deps) *Router {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Router{
		s:            s,
		guildID:      guildID,
		log:          d.Log,
		displays:     d.Displays,
		toggler:      d.Toggler,
		ranks:        d.Ranks,
		bindings:     d.Bindings,
		queues:       d.Queues,
		settings:     d.Settings,
		pub:          d.Pub,
		emojis:       d.Emojis,
		clickLimiter: newUserLimiter(time.Second),
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlash(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})

	r.s.AddHandler(func(s *discordgo.Session, cd *discordgo.ChannelDelete) {
		if cd.Channel == nil {
			return
		}
		r.onChannelDelete(cd.ID)
	})

	r.s.AddHandler(func(s *discordgo.Session, md *discordgo.MessageDelete) {
		if md.Message == nil {
			return
		}
		r.onMessageDelete(md.ID)
	})

	r.s.AddHandler(func(s *discordgo.Session, eu *discordgo.GuildEmojisUpdate) {
		if r.emojis != nil {
			r.emojis.Forget(eu.GuildID)
		}
	})
}

// onChannelDelete desregistra los displays del canal y refresca sus colas.
func (r *Router) onChannelDelete(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	targets, err := r.bindings.ListByChannel(ctx, channelID)
	if err != nil {
		r.log.Warn("[discord.channel_delete] list", "channel_id", channelID, "error", err)
		return
	}
	for _, t := range targets {
		if _, err := r.bindings.Delete(ctx, t.QueueID, channelID); err != nil {
			r.log.Warn("[discord.channel_delete] deregister", "queue_id", t.QueueID, "channel_id", channelID, "error", err)
			continue
		}
		r.publish(ctx, t.QueueID)
	}
}

// onMessageDelete: si el mensaje borrado era un display, se suelta el binding.
func (r *Router) onMessageDelete(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t, err := r.bindings.GetByMessage(ctx, messageID)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if err != nil {
		r.log.Warn("[discord.message_delete] lookup", "message_id", messageID, "error", err)
		return
	}
	// por mensaje: otro display de la cola en el mismo canal sigue vivo
	if _, err := r.bindings.DeleteByMessage(ctx, messageID); err != nil {
		r.log.Warn("[discord.message_delete] deregister", "queue_id", t.QueueID, "error", err)
		return
	}
	r.log.Info("[discord.message_delete] display removed", "queue_id", t.QueueID, "channel_id", t.ChannelID)
	r.publish(ctx, t.QueueID)
}

func (r *Router) publish(ctx context.Context, queueID string) {
	if r.pub == nil {
		return
	}
	if err := r.pub.Publish(ctx, queueID); err != nil {
		r.log.Warn("[discord] publish", "queue_id", queueID, "error", err)
	}
}
