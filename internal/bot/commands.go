package bot

import "github.com/bwmarrin/discordgo"

var (
	manageRoles = int64(discordgo.PermissionManageRoles)
	manageGuild = int64(discordgo.PermissionManageServer)
	noDM        = false
)

// commands is the full slash-command surface, registered on ready.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:         "verify",
		Description:  "Verifies you and gives you a nice role!",
		DMPermission: &noDM,
	},
	{
		Name:                     "verify-all",
		Description:              "Re-verifies everyone on the server; requires permission to manage roles.",
		DMPermission:             &noDM,
		DefaultMemberPermissions: &manageRoles,
	},
	{
		Name:                     "setup",
		Description:              "Registers this server with the verification backend.",
		DMPermission:             &noDM,
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "The role to grant to verified members",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "invite-link",
				Description: "A permanent invite link for this server",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "society-link",
				Description: "Link to the society page, if any",
			},
		},
	},
}

// handler runs a slash command. Handlers respond to the interaction
// themselves; dispatch only logs.
type handler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// dispatch returns the handler for a command name.
func (b *Bot) dispatch(name string) (handler, bool) {
	switch name {
	case "verify":
		return b.handleVerify, true
	case "verify-all":
		return b.handleVerifyAll, true
	case "setup":
		return b.handleSetup, true
	default:
		return nil, false
	}
}
