// Package reconcile is the deferred verification engine: it accepts
// fire-and-forget verification requests, dedupes them per user, and retries
// backend checks on a fixed sweep interval until the user verifies or a
// bounded retry budget runs out.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rolegate/internal/gateway"
	"rolegate/internal/platform/metrics"
	"rolegate/internal/verify"
)

// inboxCapacity bounds the submission channel. Submit never blocks: an
// overflowing inbox drops the request with a warning, which a caller cannot
// distinguish from an exhausted retry budget.
const inboxCapacity = 1024

// Verifier is the slice of the backend client the engine consumes.
type Verifier interface {
	CheckVerified(ctx context.Context, userID, guildID string) error
	ResolveVerifiedRole(ctx context.Context, guildID string) (string, error)
	InvalidateGuildRole(ctx context.Context, guildID string) error
}

// Request asks the engine to verify one user in one guild.
type Request struct {
	UserID  string
	GuildID string
}

// pursuit is the engine's working-set entry for one tracked user.
type pursuit struct {
	guildID   string
	remaining int
}

// Engine owns the reconciliation loop. The tracked map is touched only by
// that loop; everything else reaches the engine through the inbox channel or
// the synchronous entry points, which share no state with the loop.
type Engine struct {
	verifier Verifier
	gw       gateway.Gateway
	logger   *slog.Logger
	metrics  *metrics.Metrics

	maxTries int
	interval time.Duration

	inbox   chan Request
	tracked map[string]*pursuit
}

// New builds an engine; call Run to start the loop.
func New(verifier Verifier, gw gateway.Gateway, maxTries int, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		verifier: verifier,
		gw:       gw,
		logger:   logger,
		metrics:  m,
		maxTries: maxTries,
		interval: interval,
		inbox:    make(chan Request, inboxCapacity),
		tracked:  make(map[string]*pursuit),
	}
}

// Submit enqueues a verification request without blocking the caller. The
// request is folded into the next sweep; duplicates for a user already being
// tracked are coalesced there and do not reset its budget.
func (e *Engine) Submit(userID, guildID string) {
	select {
	case e.inbox <- Request{UserID: userID, GuildID: guildID}:
	default:
		e.logger.Warn("verification inbox full, dropping request",
			"user_id", userID, "guild_id", guildID)
	}
}

// Run drives the sweep loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("reconciliation loop started",
		"interval", e.interval, "max_tries", e.maxTries)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

// sweepResult carries one user's outcome from the fan-out back to the loop.
type sweepResult struct {
	userID   string
	guildID  string
	resolved bool
}

// sweep runs one reconciliation cycle: fold newly submitted requests into the
// working set, dispatch one check per tracked user concurrently, wait for all
// of them, then apply budget transitions. The working set is never mutated
// while checks are in flight, which keeps the one-in-flight-per-user
// invariant without per-user locks.
func (e *Engine) sweep(ctx context.Context) {
	start := time.Now()
	e.drainInbox()

	if len(e.tracked) == 0 {
		return
	}

	sweepID := uuid.NewString()
	log := e.logger.With("sweep_id", sweepID)
	log.Debug("sweep started", "tracked", len(e.tracked))

	// Snapshot this cycle's generation before dispatching anything.
	results := make([]sweepResult, 0, len(e.tracked))
	for userID, p := range e.tracked {
		results = append(results, sweepResult{userID: userID, guildID: p.guildID})
	}

	var g errgroup.Group
	for i := range results {
		r := &results[i]
		g.Go(func() error {
			r.resolved = e.checkOnce(ctx, log, r.userID, r.guildID)
			return nil
		})
	}
	// Join barrier: the next cycle's work must not start while any of this
	// cycle's checks are still in flight.
	_ = g.Wait()

	for _, r := range results {
		p := e.tracked[r.userID]
		if r.resolved {
			delete(e.tracked, r.userID)
			continue
		}
		p.remaining--
		if p.remaining <= 0 {
			delete(e.tracked, r.userID)
			if e.metrics != nil {
				e.metrics.ExhaustedTotal.Inc()
			}
			log.Debug("retry budget exhausted", "user_id", r.userID, "guild_id", p.guildID)
		}
	}

	if e.metrics != nil {
		e.metrics.TrackedUsers.Set(float64(len(e.tracked)))
		e.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
	log.Debug("sweep finished", "tracked", len(e.tracked), "elapsed", time.Since(start))
}

// drainInbox folds pending submissions into the working set. A user already
// tracked keeps their current countdown; the duplicate is coalesced.
func (e *Engine) drainInbox() {
	for {
		select {
		case req := <-e.inbox:
			if _, ok := e.tracked[req.UserID]; ok {
				continue
			}
			e.tracked[req.UserID] = &pursuit{guildID: req.GuildID, remaining: e.maxTries}
		default:
			return
		}
	}
}

// checkOnce performs one verification check for a tracked user and, on
// confirmation, grants the role. Returns true when the user is resolved and
// should leave the working set. A failed grant still resolves: the engine is
// best-effort on the mutation and relies on an explicit re-verification pass
// to repair drift.
func (e *Engine) checkOnce(ctx context.Context, log *slog.Logger, userID, guildID string) bool {
	err := e.verifier.CheckVerified(ctx, userID, guildID)
	switch {
	case err == nil:
		// verified, grant below
	case errors.Is(err, verify.ErrNotVerified):
		e.observeCheck(metrics.OutcomeNotVerified)
		return false
	default:
		e.observeCheck(metrics.OutcomeError)
		log.Warn("verification check failed", "error", err, "user_id", userID, "guild_id", guildID)
		return false
	}
	e.observeCheck(metrics.OutcomeVerified)

	roleID, err := e.verifier.ResolveVerifiedRole(ctx, guildID)
	if err != nil {
		log.Warn("verified role lookup failed", "error", err, "guild_id", guildID)
		return false
	}

	if err := e.gw.AddMemberRole(ctx, guildID, userID, roleID); err != nil {
		log.Warn("role grant failed", "error", err,
			"user_id", userID, "guild_id", guildID, "role_id", roleID)
		return true
	}
	if e.metrics != nil {
		e.metrics.GrantsTotal.Inc()
	}
	log.Info("role granted", "user_id", userID, "guild_id", guildID, "role_id", roleID)
	return true
}

func (e *Engine) observeCheck(outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveCheck(outcome)
	}
}
