// Package guildrole caches the verified-role id configured for each guild.
// Entries expire by TTL and are explicitly invalidated after a guild-wide
// re-verification or a configuration change.
package guildrole

import "context"

// Store maps a guild id to its verified-role id with expiry. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the cached role id, or sentinel.ErrNotFound when absent
	// or expired.
	Get(ctx context.Context, guildID string) (string, error)

	// Set stores the role id for a guild, restarting its TTL.
	Set(ctx context.Context, guildID, roleID string) error

	// Invalidate removes the entry regardless of remaining TTL, forcing the
	// next lookup to hit the backend.
	Invalidate(ctx context.Context, guildID string) error
}
