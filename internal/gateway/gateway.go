// Package gateway defines the chat-platform boundary consumed by the
// verification engine. The engine only ever sees this interface; the discord
// subpackage adapts the real session to it.
package gateway

//go:generate mockgen -source=gateway.go -destination=mocks/mocks.go -package=mocks Gateway

import (
	"context"
	"iter"
)

// Member is a guild member as seen through the gateway.
type Member struct {
	UserID   string
	Username string
	Bot      bool
	RoleIDs  []string
}

// Role is a guild role.
type Role struct {
	ID     string
	Name   string
	Colour int
}

// Gateway is the slice of the chat platform the engine depends on.
type Gateway interface {
	// AddMemberRole grants roleID to userID in guildID. Idempotent on the
	// platform side: granting an already-held role succeeds.
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error

	// Members lazily enumerates the members of a guild. The sequence is
	// restartable per call, not mid-iteration: an error element terminates
	// this enumeration and a fresh call starts over.
	Members(ctx context.Context, guildID string) iter.Seq2[Member, error]

	// GuildRoles lists the roles configured in a guild.
	GuildRoles(ctx context.Context, guildID string) ([]Role, error)
}
