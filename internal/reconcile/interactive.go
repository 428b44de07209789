package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"rolegate/internal/platform/metrics"
	"rolegate/internal/verify"
)

// Outcome of a synchronous check-and-grant, for the interactive command layer.
type Outcome int

const (
	// OutcomeGranted: the user is verified and the role mutation succeeded.
	OutcomeGranted Outcome = iota
	// OutcomeNotVerified: the backend does not know the user yet; the user
	// was handed to the background loop.
	OutcomeNotVerified
	// OutcomeGuildNotConfigured: the guild is not registered.
	OutcomeGuildNotConfigured
	// OutcomeGuildNotApproved: registered but awaiting approval.
	OutcomeGuildNotApproved
)

// ErrGrantFailed wraps a gateway role-mutation failure for a verified user,
// so interactive callers can tell it apart from backend trouble.
var ErrGrantFailed = errors.New("role grant failed")

// CheckAndGrant performs one immediate verification check for the /verify
// command. A not-verified user is also submitted to the background loop so a
// verification completed shortly after the command still lands the role.
func (e *Engine) CheckAndGrant(ctx context.Context, userID, guildID string) (Outcome, error) {
	err := e.verifier.CheckVerified(ctx, userID, guildID)
	switch {
	case err == nil:
	case errors.Is(err, verify.ErrNotVerified):
		e.observeCheck(metrics.OutcomeNotVerified)
		e.Submit(userID, guildID)
		return OutcomeNotVerified, nil
	default:
		e.observeCheck(metrics.OutcomeError)
		return 0, fmt.Errorf("check verification: %w", err)
	}
	e.observeCheck(metrics.OutcomeVerified)

	roleID, err := e.verifier.ResolveVerifiedRole(ctx, guildID)
	switch {
	case err == nil:
	case errors.Is(err, verify.ErrGuildNotConfigured):
		return OutcomeGuildNotConfigured, nil
	case errors.Is(err, verify.ErrGuildNotApproved):
		return OutcomeGuildNotApproved, nil
	default:
		return 0, fmt.Errorf("resolve verified role: %w", err)
	}

	if err := e.gw.AddMemberRole(ctx, guildID, userID, roleID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGrantFailed, err)
	}
	if e.metrics != nil {
		e.metrics.GrantsTotal.Inc()
	}
	return OutcomeGranted, nil
}

// BulkReVerify runs an administrator-invoked guild-wide pass: invalidate the
// cached role mapping, take a fresh authoritative lookup, then check every
// member that is not a bot and does not already hold the role. Each eligible
// member gets exactly one check, with no retry budget; members that fail are
// simply not granted. Returns the number of members granted the role.
func (e *Engine) BulkReVerify(ctx context.Context, guildID string) (int, error) {
	if err := e.verifier.InvalidateGuildRole(ctx, guildID); err != nil {
		return 0, fmt.Errorf("invalidate guild role cache: %w", err)
	}

	roleID, err := e.verifier.ResolveVerifiedRole(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("resolve verified role: %w", err)
	}

	var (
		granted atomic.Int64
		g       errgroup.Group
	)
	for member, err := range e.gw.Members(ctx, guildID) {
		if err != nil {
			// Enumeration is not restartable mid-iteration; grants already
			// made stand, the pass itself fails.
			_ = g.Wait()
			return int(granted.Load()), fmt.Errorf("enumerate members: %w", err)
		}
		if member.Bot || slices.Contains(member.RoleIDs, roleID) {
			continue
		}

		userID := member.UserID
		g.Go(func() error {
			if err := e.verifier.CheckVerified(ctx, userID, guildID); err != nil {
				if errors.Is(err, verify.ErrNotVerified) {
					e.observeCheck(metrics.OutcomeNotVerified)
				} else {
					e.observeCheck(metrics.OutcomeError)
					e.logger.Warn("bulk verification check failed",
						"error", err, "user_id", userID, "guild_id", guildID)
				}
				return nil
			}
			e.observeCheck(metrics.OutcomeVerified)

			if err := e.gw.AddMemberRole(ctx, guildID, userID, roleID); err != nil {
				e.logger.Warn("bulk role grant failed",
					"error", err, "user_id", userID, "guild_id", guildID, "role_id", roleID)
				return nil
			}
			granted.Add(1)
			if e.metrics != nil {
				e.metrics.GrantsTotal.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Info("bulk re-verification finished", "guild_id", guildID, "granted", granted.Load())
	return int(granted.Load()), nil
}
