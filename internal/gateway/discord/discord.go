// Package discord adapts a discordgo session to the gateway boundary.
package discord

import (
	"context"
	"fmt"
	"iter"

	"github.com/bwmarrin/discordgo"

	"rolegate/internal/gateway"
)

// memberPageSize is the maximum page size the member list endpoint allows.
const memberPageSize = 1000

// Gateway implements gateway.Gateway over a live discordgo session.
type Gateway struct {
	session *discordgo.Session
}

// New wraps an open discordgo session.
func New(session *discordgo.Session) *Gateway {
	return &Gateway{session: session}
}

// AddMemberRole grants roleID to userID in guildID.
func (g *Gateway) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := g.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s in %s: %w", roleID, userID, guildID, err)
	}
	return nil
}

// Members pages through the guild member list lazily.
func (g *Gateway) Members(ctx context.Context, guildID string) iter.Seq2[gateway.Member, error] {
	return func(yield func(gateway.Member, error) bool) {
		after := ""
		for {
			page, err := g.session.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
			if err != nil {
				yield(gateway.Member{}, fmt.Errorf("list members of %s: %w", guildID, err))
				return
			}
			for _, m := range page {
				if m.User == nil {
					continue
				}
				if !yield(toMember(m), nil) {
					return
				}
				after = m.User.ID
			}
			if len(page) < memberPageSize {
				return
			}
		}
	}
}

// GuildRoles lists the roles configured in a guild.
func (g *Gateway) GuildRoles(ctx context.Context, guildID string) ([]gateway.Role, error) {
	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list roles of %s: %w", guildID, err)
	}
	out := make([]gateway.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, gateway.Role{ID: r.ID, Name: r.Name, Colour: r.Color})
	}
	return out, nil
}

func toMember(m *discordgo.Member) gateway.Member {
	return gateway.Member{
		UserID:   m.User.ID,
		Username: m.User.Username,
		Bot:      m.User.Bot,
		RoleIDs:  m.Roles,
	}
}

var _ gateway.Gateway = (*Gateway)(nil)
