// Package command defines the shape every bot command and gateway event
// module must satisfy, plus the execution context handlers receive.
package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/Anggahrm/dc-zumy/internal/store"
)

// DefaultCooldownSeconds applies when a command declares no cooldown.
const DefaultCooldownSeconds = 3

// ExecuteFunc runs a slash command invocation.
type ExecuteFunc func(ctx *Context) error

// ComponentFunc handles a component interaction bound to a static custom ID.
type ComponentFunc func(ctx *Context) error

// DynamicComponentFunc is a catch-all component handler. It returns true
// when it claimed the interaction.
type DynamicComponentFunc func(ctx *Context) (bool, error)

// Permissions is the closed set of access flags a command may require.
type Permissions struct {
	Owner     bool
	Admin     bool
	GuildOnly bool
}

// Command is an immutable command definition: identity and serializable
// description via Definition, plus routing metadata and handlers.
type Command struct {
	Definition  *discordgo.ApplicationCommand
	Category    string
	Cooldown    int // seconds; 0 means DefaultCooldownSeconds
	Permissions *Permissions
	Execute     ExecuteFunc
	Components  map[string]ComponentFunc
	OnComponent DynamicComponentFunc
}

// Name returns the command's invocation name.
func (c *Command) Name() string {
	if c == nil || c.Definition == nil {
		return ""
	}
	return c.Definition.Name
}

// CooldownSeconds returns the declared cooldown, or the default when unset.
func (c *Command) CooldownSeconds() int {
	if c.Cooldown > 0 {
		return c.Cooldown
	}
	return DefaultCooldownSeconds
}

// RegistryView is the read-only registry surface handlers may use
// (help listing, reload status). Satisfied by *registry.Registry.
type RegistryView interface {
	All() []*Command
	Get(name string) (*Command, bool)
	Size() int
}

// Context carries everything a handler needs for one interaction.
type Context struct {
	Ctx         context.Context
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Registry    RegistryView
	Store       *store.Store
	Log         zerolog.Logger
	Reload      func() (int, error)
}

// User resolves the invoking user for both guild and DM interactions.
func (c *Context) User() *discordgo.User {
	if c.Interaction.Member != nil && c.Interaction.Member.User != nil {
		return c.Interaction.Member.User
	}
	if c.Interaction.User != nil {
		return c.Interaction.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// GuildID returns the guild the interaction happened in, or "" for DMs.
func (c *Context) GuildID() string {
	return c.Interaction.GuildID
}

// Options returns the top-level options of a slash invocation keyed by name.
func (c *Context) Options() map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := c.Interaction.ApplicationCommandData()
	return OptionMap(data.Options)
}

// OptionMap keys an option list by name. Useful for subcommand options.
func OptionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

// Event binds a gateway event handler. Handler must be a discordgo handler
// func; Once wires it via AddHandlerOnce.
type Event struct {
	Name    string
	Once    bool
	Handler interface{}
}
