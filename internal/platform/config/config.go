package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures everything the bot needs from its environment. One struct,
// assembled once in main, passed down by value.
type Config struct {
	// DiscordToken authenticates the gateway session.
	DiscordToken string

	// BackendURL is the base URL of the verification backend, without a
	// trailing slash. BackendAPIKey is sent as the Authorization header on
	// every backend call.
	BackendURL    string
	BackendAPIKey string

	// OpsAddr is the listen address for the /healthz and /metrics endpoints.
	OpsAddr string

	// CommandGuildID scopes slash-command registration to one guild when
	// set (instant propagation, useful in development); empty registers
	// the commands globally.
	CommandGuildID string

	// RedisURL selects redis-backed caches when set; empty means in-memory.
	RedisURL string

	Reconcile ReconcileConfig
	CacheTTL  CacheTTLConfig
}

// ReconcileConfig bounds the background verification retry loop.
type ReconcileConfig struct {
	// MaxTries is the number of sweeps a submitted user participates in
	// before being dropped.
	MaxTries int

	// SweepInterval is the fixed delay between reconciliation sweeps.
	SweepInterval time.Duration
}

// CacheTTLConfig sets the freshness windows of the two lookup caches.
type CacheTTLConfig struct {
	GuildRole time.Duration
	Verified  time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// Missing required variables are reported together rather than one at a time.
func FromEnv() (Config, error) {
	cfg := Config{
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		BackendURL:     os.Getenv("BACKEND_URL"),
		BackendAPIKey:  os.Getenv("BACKEND_API_KEY"),
		OpsAddr:        envOr("OPS_ADDR", ":9090"),
		CommandGuildID: os.Getenv("COMMAND_GUILD_ID"),
		RedisURL:       os.Getenv("REDIS_URL"),
		Reconcile: ReconcileConfig{
			MaxTries:      5,
			SweepInterval: 5 * time.Second,
		},
		CacheTTL: CacheTTLConfig{
			GuildRole: 10 * time.Minute,
			Verified:  10 * time.Minute,
		},
	}

	var missing []string
	for _, v := range []struct{ name, val string }{
		{"DISCORD_TOKEN", cfg.DiscordToken},
		{"BACKEND_URL", cfg.BackendURL},
		{"BACKEND_API_KEY", cfg.BackendAPIKey},
	} {
		if v.val == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	var err error
	if cfg.Reconcile.MaxTries, err = envInt("MAX_TRIES", cfg.Reconcile.MaxTries); err != nil {
		return Config{}, err
	}
	if cfg.Reconcile.MaxTries < 1 {
		return Config{}, fmt.Errorf("MAX_TRIES must be at least 1")
	}
	if cfg.Reconcile.SweepInterval, err = envDuration("SWEEP_INTERVAL", cfg.Reconcile.SweepInterval); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL.GuildRole, err = envDuration("GUILD_ROLE_TTL", cfg.CacheTTL.GuildRole); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL.Verified, err = envDuration("VERIFIED_TTL", cfg.CacheTTL.Verified); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return n, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return d, nil
}
