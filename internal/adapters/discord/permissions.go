package discord

import "github.com/bwmarrin/discordgo"

const managePerms = discordgo.PermissionAdministrator | discordgo.PermissionManageChannels | discordgo.PermissionManageGuild

// canManage: owner, o permisos de administración resueltos en la interacción.
func canManage(s *discordgo.Session, ic *discordgo.InteractionCreate) bool {
	if ic.Member == nil || ic.Member.User == nil {
		return false
	}
	if s != nil && s.State != nil {
		if g, _ := s.State.Guild(ic.GuildID); g != nil && ic.Member.User.ID == g.OwnerID {
			return true
		}
	}
	return ic.Member.Permissions&managePerms != 0
}
