package verify

import (
	"errors"
	"fmt"
)

// Expected negative outcomes. These are normal states surfaced to users as
// instructions, not failures.
var (
	// ErrNotVerified means the backend does not (yet) know this user as
	// verified for the guild.
	ErrNotVerified = errors.New("user not verified")

	// ErrGuildNotConfigured means the guild is not registered with the
	// backend.
	ErrGuildNotConfigured = errors.New("guild not configured")

	// ErrGuildNotApproved means the guild is registered but its
	// registration has not been approved; it must not receive automatic
	// role grants.
	ErrGuildNotApproved = errors.New("guild not approved")

	// ErrAlreadyRegistered means a registration was submitted for a guild
	// the backend already knows.
	ErrAlreadyRegistered = errors.New("guild already registered")
)

// BackendError is any backend response outside the expected status set:
// bad authorization, malformed parameters, or server failure. The client
// cannot tell a temporarily misconfigured deployment from a permanently
// misconfigured one, so all of these retry the same way.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}
