// Package verified caches confirmed verification outcomes per user. An entry
// is written only when the backend confirms a user; it is a fast-path lookup
// for the role id, never the sole authority for granting it.
package verified

import "context"

// Store maps a user id to the role id of their most recent confirmed
// verification, with expiry. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the confirmed role id, or sentinel.ErrNotFound when the
	// user has no fresh confirmation.
	Get(ctx context.Context, userID string) (string, error)

	// Set records a confirmed verification, restarting its TTL.
	Set(ctx context.Context, userID, roleID string) error

	// Invalidate drops the confirmation for a user.
	Invalidate(ctx context.Context, userID string) error
}
