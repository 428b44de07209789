// Command bot runs the verification bot: a discord gateway session, the
// background reconciliation engine, and a small ops HTTP server for health
// and metrics. All wiring happens here; packages under internal/ stay
// ignorant of each other's construction.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"rolegate/internal/bot"
	"rolegate/internal/gateway/discord"
	"rolegate/internal/platform/config"
	"rolegate/internal/platform/httpserver"
	"rolegate/internal/platform/logger"
	"rolegate/internal/platform/metrics"
	platformredis "rolegate/internal/platform/redis"
	"rolegate/internal/reconcile"
	"rolegate/internal/verify"
	"rolegate/internal/verify/store/guildrole"
	"rolegate/internal/verify/store/verified"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var (
		roles     guildrole.Store
		confirmed verified.Store
	)
	if rdb != nil {
		log.Info("using redis caches")
		roles = guildrole.NewRedis(rdb.Client, cfg.CacheTTL.GuildRole)
		confirmed = verified.NewRedis(rdb.Client, cfg.CacheTTL.Verified)
	} else {
		roles = guildrole.NewMemory(cfg.CacheTTL.GuildRole)
		confirmed = verified.NewMemory(cfg.CacheTTL.Verified)
	}

	backend := verify.New(cfg.BackendURL, cfg.BackendAPIKey, roles, confirmed, log, m)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	engine := reconcile.New(backend, discord.New(session), cfg.Reconcile.MaxTries, cfg.Reconcile.SweepInterval, log, m)
	bot.New(engine, backend, cfg.BackendURL, cfg.CommandGuildID, log).Attach(session)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer session.Close()

	var checkers []httpserver.HealthChecker
	if rdb != nil {
		checkers = append(checkers, rdb)
	}
	ops := httpserver.New(cfg.OpsAddr, checkers...)
	go func() {
		log.Info("ops server listening", "addr", cfg.OpsAddr)
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server failed", "error", err)
		}
	}()

	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("reconcile loop stopped", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return nil
}
