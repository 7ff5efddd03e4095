package discord

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/app/render"
)

// EmojiResolver mapea tiers de rank a emojis del servidor.
// Orden: override por config (TIER_EMOJIS), después autodescubrimiento por nombre en el guild.
type EmojiResolver struct {
	s         *discordgo.Session
	overrides map[string]string

	mu    sync.Mutex
	guild map[string]map[string]string // guildID -> tier -> emoji
}

func NewEmojiResolver(s *discordgo.Session, overrides map[string]string) *EmojiResolver {
	o := make(map[string]string, len(overrides))
	for k, v := range overrides {
		o[strings.ToLower(k)] = v
	}
	return &EmojiResolver{s: s, overrides: o, guild: map[string]map[string]string{}}
}

func (r *EmojiResolver) For(guildID string) render.IconResolver {
	found := r.discovered(guildID)
	return func(tier string) (string, bool) {
		tier = strings.ToLower(tier)
		if e, ok := r.overrides[tier]; ok {
			return e, true
		}
		e, ok := found[tier]
		return e, ok
	}
}

// Forget descarta el cache del guild (ej: GuildEmojisUpdate).
func (r *EmojiResolver) Forget(guildID string) {
	r.mu.Lock()
	delete(r.guild, guildID)
	r.mu.Unlock()
}

func (r *EmojiResolver) discovered(guildID string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.guild[guildID]; ok {
		return m
	}
	m := map[string]string{}
	if r.s != nil && r.s.State != nil {
		if g, err := r.s.State.Guild(guildID); err == nil && g != nil {
			m = indexEmojis(g.Emojis)
		}
	}
	r.guild[guildID] = m
	return m
}

var tierNameRe = regexp.MustCompile(`(?i)^(?:r6_?|rank_?)?([a-z]+)_?([1-5])?$`)

// tierFromEmojiName acepta "gold1", "Gold_1", "r6_gold1", "rank_champions".
func tierFromEmojiName(name string) (string, bool) {
	m := tierNameRe.FindStringSubmatch(strings.ReplaceAll(name, "-", "_"))
	if len(m) != 3 {
		return "", false
	}
	t := strings.ToLower(m[1] + m[2])
	for _, known := range render.Tiers() {
		if known == t {
			return t, true
		}
	}
	return "", false
}

func indexEmojis(emojis []*discordgo.Emoji) map[string]string {
	out := map[string]string{}
	for _, e := range emojis {
		if e == nil || !e.Available {
			continue
		}
		t, ok := tierFromEmojiName(e.Name)
		if !ok {
			continue
		}
		if e.Animated {
			out[t] = fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
		} else {
			out[t] = fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
		}
	}
	return out
}
