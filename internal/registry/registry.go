// Package registry stores one validated generation of commands and their
// component-interaction bindings. A generation is replaced atomically: a
// snapshot that fails validation never overwrites the live one.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/command"
)

// ErrDuplicate marks name and component-ID collisions between commands.
var ErrDuplicate = errors.New("duplicate registration")

type componentBinding struct {
	handler command.ComponentFunc
	owner   string // command name that declared the binding
	source  string
}

// Registry holds commands by name and component handlers by custom ID.
// Safe for concurrent lookups while a reload swaps generations.
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*command.Command
	sources    map[string]string
	components map[string]componentBinding
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		commands:   make(map[string]*command.Command),
		sources:    make(map[string]string),
		components: make(map[string]componentBinding),
	}
}

// Register adds a command. It fails without mutating state when the command
// is malformed or its name or any declared component ID collides with an
// existing entry, naming both the new and the conflicting source.
func (r *Registry) Register(c *command.Command, source string) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("%s: command has no definition name", source)
	}
	if c.Execute == nil {
		return fmt.Errorf("%s: command %q has no executor", source, c.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if existing, ok := r.sources[name]; ok {
		return fmt.Errorf("%w: command name %q in %s (already defined in %s)", ErrDuplicate, name, source, existing)
	}

	// Stage component bindings so a duplicate leaves the registry untouched.
	staged := make(map[string]componentBinding, len(c.Components))
	for customID, handler := range c.Components {
		if handler == nil {
			return fmt.Errorf("%s: command %q has a nil handler for component %q", source, name, customID)
		}
		if existing, ok := r.components[customID]; ok {
			return fmt.Errorf("%w: component custom ID %q in %s (already defined in %s)", ErrDuplicate, customID, source, existing.source)
		}
		staged[customID] = componentBinding{handler: handler, owner: name, source: source}
	}

	r.commands[name] = c
	r.sources[name] = source
	for customID, binding := range staged {
		r.components[customID] = binding
	}
	return nil
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (*command.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	return c, ok
}

// ComponentHandler returns the handler bound to a static component custom ID.
func (r *Registry) ComponentHandler(customID string) (command.ComponentFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.components[customID]
	if !ok {
		return nil, false
	}
	return b.handler, true
}

// All returns every registered command, sorted by name.
func (r *Registry) All() []*command.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*command.Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Size returns the number of registered commands.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Entry is one registered command with its provenance.
type Entry struct {
	Name    string
	Command *command.Command
	Source  string
}

// Entries returns all commands with their source labels, sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.commands))
	for name, c := range r.commands {
		entries = append(entries, Entry{Name: name, Command: c, Source: r.sources[name]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Serialize returns the application-command definitions for platform
// registration, failing loudly with the offending command and source.
func (r *Registry) Serialize() ([]*discordgo.ApplicationCommand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*discordgo.ApplicationCommand, 0, len(r.commands))
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := r.commands[name]
		if c.Definition == nil || c.Definition.Name == "" {
			return nil, fmt.Errorf("failed to serialize command %q from %s: empty definition", name, r.sources[name])
		}
		def := *c.Definition
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		defs = append(defs, &def)
	}
	return defs, nil
}

// ReplaceFrom atomically adopts the other registry's entries. Every entry is
// re-validated into a scratch generation first; on any failure the live
// generation is left fully intact.
func (r *Registry) ReplaceFrom(other *Registry) error {
	scratch := New()
	for _, e := range other.Entries() {
		if err := scratch.Register(e.Command, e.Source); err != nil {
			return fmt.Errorf("registry swap rejected: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = scratch.commands
	r.sources = scratch.sources
	r.components = scratch.components
	return nil
}
