package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/app/render"
)

func toEmbed(doc render.Document) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       doc.Title,
		Description: doc.Description,
		Fields:      make([]*discordgo.MessageEmbedField, 0, len(doc.Fields)),
	}
	if doc.Color != nil {
		e.Color = *doc.Color
	}
	for _, f := range doc.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

// components: sin control se manda la lista vacía para que Discord borre los botones.
func components(ctl *render.Control) []discordgo.MessageComponent {
	if ctl == nil {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    ctl.Label,
					Style:    discordgo.SecondaryButton,
					CustomID: ctl.CustomID,
				},
			},
		},
	}
}
