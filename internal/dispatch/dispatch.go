// Package dispatch routes gateway interactions to registered command and
// component handlers, applying permission checks and per-user cooldowns
// before any handler runs.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/cooldown"
	"github.com/Anggahrm/dc-zumy/internal/permission"
	"github.com/Anggahrm/dc-zumy/internal/registry"
	"github.com/Anggahrm/dc-zumy/internal/respond"
	"github.com/Anggahrm/dc-zumy/internal/store"
)

const genericFailure = "Something went wrong while running that command."

// Notifier delivers a short user-facing refusal or failure notice for an
// interaction. Replaceable in tests.
type Notifier func(s *discordgo.Session, i *discordgo.InteractionCreate, message string)

// Dispatcher wires one interaction-create event through command resolution,
// permission and cooldown gates, and handler execution.
type Dispatcher struct {
	registry    *registry.Registry
	cooldowns   *cooldown.Service
	permissions *permission.Service
	store       *store.Store
	log         zerolog.Logger
	reload      func() (int, error)
	notify      Notifier
}

// New builds a dispatcher over the live registry and its gate services.
// reload may be nil when hot reloading is disabled.
func New(reg *registry.Registry, cd *cooldown.Service, perms *permission.Service, st *store.Store, log zerolog.Logger, reload func() (int, error)) *Dispatcher {
	return &Dispatcher{
		registry:    reg,
		cooldowns:   cd,
		permissions: perms,
		store:       st,
		log:         log,
		reload:      reload,
		notify:      respond.ReplyError,
	}
}

// SetNotifier replaces the user-facing notice delivery. Test seam.
func (d *Dispatcher) SetNotifier(n Notifier) {
	if n != nil {
		d.notify = n
	}
}

// HandleInteraction is the discordgo InteractionCreate handler.
func (d *Dispatcher) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		d.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		d.handleComponent(s, i)
	}
}

func (d *Dispatcher) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	user := actor(i)

	cmd, ok := d.registry.Get(name)
	if !ok {
		d.log.Warn().Str("command", name).Str("user", user.ID).Msg("Unknown command invoked")
		d.notify(s, i, "That command is not available.")
		return
	}

	if dec := d.permissions.Check(i, cmd.Permissions); !dec.OK {
		d.notify(s, i, dec.Reason)
		return
	}

	if remaining := d.cooldowns.Remaining(name, user.ID); remaining > 0 {
		d.notify(s, i, fmt.Sprintf("You're a bit fast. Try again in %ds.", remaining))
		return
	}
	d.cooldowns.Consume(name, user.ID, cmd.CooldownSeconds())

	d.run(s, i, name, func(ctx *command.Context) error { return cmd.Execute(ctx) })
}

func (d *Dispatcher) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if handler, ok := d.registry.ComponentHandler(customID); ok {
		d.run(s, i, customID, handler)
		return
	}

	// No static binding: offer the interaction to catch-all handlers in
	// registry order until one claims it. A probe failure stops the probing.
	for _, cmd := range d.registry.All() {
		probe := cmd.OnComponent
		if probe == nil {
			continue
		}
		claimed := false
		failed := true // stays true if the probe panics
		d.run(s, i, customID, func(ctx *command.Context) error {
			ok, err := probe(ctx)
			claimed = ok
			failed = err != nil
			return err
		})
		if claimed || failed {
			return
		}
	}
	// Unclaimed component interactions are dropped silently.
	d.log.Debug().Str("custom_id", customID).Msg("Component interaction unclaimed")
}

// run executes a handler with a populated context, converting panics and
// returned errors into a logged failure plus a generic user notice.
func (d *Dispatcher) run(s *discordgo.Session, i *discordgo.InteractionCreate, label string, fn func(*command.Context) error) {
	ctx := &command.Context{
		Ctx:         context.Background(),
		Session:     s,
		Interaction: i,
		Registry:    d.registry,
		Store:       d.store,
		Log:         d.log.With().Str("handler", label).Logger(),
		Reload:      d.reload,
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("handler", label).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")
			d.notify(s, i, genericFailure)
		}
	}()

	if err := fn(ctx); err != nil {
		d.log.Error().Err(err).Str("handler", label).Str("user", actor(i).ID).Msg("Handler failed")
		d.notify(s, i, genericFailure)
	}
}

func actor(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}
