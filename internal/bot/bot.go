// Package bot owns the gateway session lifecycle: connecting, registering
// slash commands with the platform, wiring event handlers, and shutdown.
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/config"
	"github.com/Anggahrm/dc-zumy/internal/dispatch"
	"github.com/Anggahrm/dc-zumy/internal/registry"
)

// Bot is a connected gateway session plus the live command registry.
type Bot struct {
	session  *discordgo.Session
	registry *registry.Registry
	cfg      *config.Config
	log      zerolog.Logger
	reload   func() (int, error)
}

// New builds the session, sets intents, and attaches the dispatcher and
// event handlers. The session is not opened yet.
func New(cfg *config.Config, reg *registry.Registry, d *dispatch.Dispatcher, events []command.Event, reload func() (int, error), log zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages

	session.AddHandler(d.HandleInteraction)
	for _, ev := range events {
		if ev.Once {
			session.AddHandlerOnce(ev.Handler)
		} else {
			session.AddHandler(ev.Handler)
		}
	}

	return &Bot{
		session:  session,
		registry: reg,
		cfg:      cfg,
		log:      log,
		reload:   reload,
	}, nil
}

// Start opens the gateway connection and publishes the slash commands.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	// The bot stays up even when command publication fails; an owner can
	// retry later with a reload signal.
	if err := b.RegisterCommands(ctx); err != nil {
		b.log.Error().Err(err).Msg("Command registration failed")
	}
	return nil
}

// RegisterCommands publishes the current registry generation. Guild-scoped
// when a development guild is configured, global otherwise. A failed bulk
// overwrite falls back to throttled one-by-one registration.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	defs, err := b.registry.Serialize()
	if err != nil {
		return err
	}

	scope := "global"
	if b.cfg.DiscordGuildID != "" {
		scope = "guild " + b.cfg.DiscordGuildID
	}

	_, err = b.session.ApplicationCommandBulkOverwrite(b.cfg.DiscordClientID, b.cfg.DiscordGuildID, defs)
	if err == nil {
		b.log.Info().Int("count", len(defs)).Str("scope", scope).Msg("Slash commands registered")
		return nil
	}
	b.log.Warn().Err(err).Msg("Bulk command registration failed, retrying one by one")

	limiter := rate.NewLimiter(rate.Limit(2), 1)
	for _, def := range defs {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := b.session.ApplicationCommandCreate(b.cfg.DiscordClientID, b.cfg.DiscordGuildID, def); err != nil {
			return fmt.Errorf("register command %q: %w", def.Name, err)
		}
	}
	b.log.Info().Int("count", len(defs)).Str("scope", scope).Msg("Slash commands registered individually")
	return nil
}

// Run blocks until ctx is cancelled. When hot reload is enabled, SIGUSR2
// rebuilds the registry and republishes the commands without restarting.
func (b *Bot) Run(ctx context.Context) {
	if !b.cfg.HotReload || b.reload == nil {
		<-ctx.Done()
		return
	}

	reloads := make(chan os.Signal, 1)
	signal.Notify(reloads, syscall.SIGUSR2)
	defer signal.Stop(reloads)

	for {
		select {
		case <-ctx.Done():
			return
		case <-reloads:
			count, err := b.reload()
			if err != nil {
				b.log.Error().Err(err).Msg("Hot reload rejected, previous commands stay live")
				continue
			}
			if err := b.RegisterCommands(ctx); err != nil {
				b.log.Error().Err(err).Msg("Could not republish reloaded commands")
				continue
			}
			b.log.Info().Int("count", count).Msg("Hot reload applied")
		}
	}
}

// Stop closes the gateway connection.
func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.log.Warn().Err(err).Msg("Gateway close returned an error")
	}
}
