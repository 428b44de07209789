// Package bot is the thin Discord-facing layer: slash-command dispatch, the
// member-join hook, and guild registration. All verification policy lives in
// the reconcile engine; handlers here only translate interactions.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"rolegate/internal/reconcile"
	"rolegate/internal/verify"
)

// handlerTimeout bounds the backend work done inside one interaction.
const handlerTimeout = 30 * time.Second

// Engine is the slice of the reconciliation engine the command layer uses.
type Engine interface {
	Submit(userID, guildID string)
	CheckAndGrant(ctx context.Context, userID, guildID string) (reconcile.Outcome, error)
	BulkReVerify(ctx context.Context, guildID string) (int, error)
}

// Registrar submits guild registrations to the backend.
type Registrar interface {
	RegisterGuild(ctx context.Context, params verify.RegisterParams) (verify.RegisterResult, error)
}

// Bot wires discord events to the engine.
type Bot struct {
	engine     Engine
	registrar  Registrar
	logger     *slog.Logger
	backendURL string

	// commandGuildID scopes registration to one guild when non-empty.
	commandGuildID string
}

// New builds the bot layer; Attach hooks it onto a session.
func New(engine Engine, registrar Registrar, backendURL, commandGuildID string, logger *slog.Logger) *Bot {
	return &Bot{
		engine:         engine,
		registrar:      registrar,
		logger:         logger,
		backendURL:     backendURL,
		commandGuildID: commandGuildID,
	}
}

// Attach registers all gateway event handlers on the session.
func (b *Bot) Attach(s *discordgo.Session) {
	s.AddHandler(b.handleReady)
	s.AddHandler(b.handleInteraction)
	s.AddHandler(b.handleMemberAdd)
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("connected", "user", r.User.Username)

	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.commandGuildID, commands); err != nil {
		b.logger.Error("slash command registration failed", "error", err)
		return
	}
	b.logger.Info("slash commands registered", "count", len(commands), "guild_id", b.commandGuildID)
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	h, ok := b.dispatch(name)
	if !ok {
		b.logger.Warn("unknown command", "command", name)
		return
	}
	h(s, i)
}

// handleMemberAdd submits newly joined members to the background loop; the
// engine takes it from there.
func (b *Bot) handleMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	b.engine.Submit(m.User.ID, m.GuildID)
}

func (b *Bot) handleVerify(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	userID := i.Member.User.ID
	outcome, err := b.engine.CheckAndGrant(ctx, userID, i.GuildID)
	if err != nil {
		b.logger.Warn("verify command failed", "error", err, "user_id", userID, "guild_id", i.GuildID)
		msg := msgCheckFailed
		if errors.Is(err, reconcile.ErrGrantFailed) {
			msg = msgGrantFailed
		}
		b.respondEphemeral(s, i, msg)
		return
	}
	b.respondEphemeral(s, i, verifyReply(outcome, b.backendURL))
}

func (b *Bot) handleVerifyAll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// Enumerating and checking a whole guild takes longer than the
	// interaction token allows for an immediate reply.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		b.logger.Warn("deferring verify-all failed", "error", err, "guild_id", i.GuildID)
		return
	}

	granted, err := b.engine.BulkReVerify(ctx, i.GuildID)
	if err != nil {
		b.logger.Warn("verify-all failed", "error", err, "guild_id", i.GuildID)
		b.editResponse(s, i, msgUnsupported)
		return
	}
	b.editResponse(s, i, bulkReply(granted))
}

func (b *Bot) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	params, err := b.registrationParams(ctx, s, i)
	if err != nil {
		b.logger.Warn("building registration failed", "error", err, "guild_id", i.GuildID)
		b.respondEphemeral(s, i, msgSetupFailed)
		return
	}

	result, err := b.registrar.RegisterGuild(ctx, params)
	switch {
	case err == nil:
	case errors.Is(err, verify.ErrAlreadyRegistered):
		b.respondEphemeral(s, i, msgAlreadySetUp)
		return
	default:
		b.logger.Warn("guild registration failed", "error", err, "guild_id", i.GuildID)
		b.respondEphemeral(s, i, msgSetupFailed)
		return
	}

	if result.Approved {
		b.respondEphemeral(s, i, msgSetupApproved)
		return
	}
	b.respondEphemeral(s, i, msgSetupPending)
}

// registrationParams assembles the backend registration payload from the
// command options and guild metadata.
func (b *Bot) registrationParams(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) (verify.RegisterParams, error) {
	guild, err := s.Guild(i.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return verify.RegisterParams{}, err
	}

	createdAt, err := discordgo.SnowflakeTimestamp(i.GuildID)
	if err != nil {
		return verify.RegisterParams{}, err
	}

	params := verify.RegisterParams{
		GuildID:   i.GuildID,
		Name:      guild.Name,
		Icon:      guild.IconURL(""),
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
		OwnerID:   guild.OwnerID,
	}
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "role":
			role := opt.RoleValue(s, i.GuildID)
			params.RoleID = role.ID
			params.RoleName = role.Name
			params.RoleColour = role.Color
		case "invite-link":
			params.InviteLink = opt.StringValue()
		case "society-link":
			params.SusuLink = opt.StringValue()
		}
	}
	return params, nil
}

func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("interaction response failed", "error", err)
	}
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		b.logger.Warn("interaction edit failed", "error", err)
	}
}
