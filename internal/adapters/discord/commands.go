package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/queue-display-bot/internal/domain"
)

var manageChannels int64 = discordgo.PermissionManageChannels

var queueOpt = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionString,
	Name:        "queue",
	Description: "Queue id",
	Required:    true,
}

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:                     "display",
		Description:              "Manage queue displays",
		DefaultMemberPermissions: &manageChannels,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "attach",
				Description: "Post a live display of a queue in a channel",
				Options: []*discordgo.ApplicationCommandOption{
					queueOpt,
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel for the display (default: this one)",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "detach",
				Description: "Remove the displays of a queue",
				Options: []*discordgo.ApplicationCommandOption{
					queueOpt,
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "Only this channel (default: all)",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "refresh",
				Description: "Re-render every display of a queue",
				Options:     []*discordgo.ApplicationCommandOption{queueOpt},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "settings",
				Description: "Server display settings (only what you pass)",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "mode",
						Description: "How displays are updated",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "edit in place", Value: int(domain.ModeEdit)},
							{Name: "replace, delete old", Value: int(domain.ModeReplaceDelete)},
							{Name: "replace, keep old without button", Value: int(domain.ModeReplaceStrip)},
						},
					},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "disable_mentions", Description: "Show names instead of mentions"},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "timestamps",
						Description: "Join time shown next to each member",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "off", Value: string(domain.TimestampsOff)},
							{Name: "time", Value: string(domain.TimestampsTime)},
							{Name: "date", Value: string(domain.TimestampsDate)},
							{Name: "date+time", Value: string(domain.TimestampsDateTime)},
							{Name: "relative", Value: string(domain.TimestampsRelative)},
						},
					},
				},
			},
		},
	},
	{
		Name:        "rankname",
		Description: "Link your ranked account",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Link your account by name",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Your account name",
					Required:    true,
				}},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "clear", Description: "Unlink your account"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "show", Description: "Show your linked account"},
		},
	},
}
