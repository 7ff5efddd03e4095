package discord

import (
	"github.com/bwmarrin/discordgo"
)

// subcommand devuelve el subcomando y sus opciones indexadas por nombre.
func subcommand(data discordgo.ApplicationCommandInteractionData) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	for _, o := range data.Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o.Name, optionMap(o.Options)
		}
	}
	return "", optionMap(data.Options)
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}

func optStr(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return o.StringValue(), true
}

func optBool(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (bool, bool) {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionBoolean {
		return false, false
	}
	return o.BoolValue(), true
}

func optInt(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int, bool) {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, false
	}
	return int(o.IntValue()), true
}

// optChannel: sin sesión, discordgo devuelve un Channel con sólo el ID.
func optChannel(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionChannel {
		return "", false
	}
	return o.ChannelValue(nil).ID, true
}

func userID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}
