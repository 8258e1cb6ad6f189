// Package loader builds registry generations from the command manifest.
// A load is all-or-nothing: every module in the manifest must validate or
// the whole load is rejected with the full error list.
package loader

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/registry"
)

// Source contributes one category's commands. Build is invoked fresh on
// every load so a reload picks up new definition values, the same way the
// original picked up re-imported modules.
type Source struct {
	Category string
	Build    func() []*command.Command
}

// Manifest is the ordered source-of-truth for a registry generation.
type Manifest []Source

// ModuleError records one module that failed validation.
type ModuleError struct {
	Source string
	Reason string
}

func (e ModuleError) String() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

// LoadError aggregates every module failure from a scan.
type LoadError struct {
	Modules []ModuleError
}

func (e *LoadError) Error() string {
	reasons := make([]string, len(e.Modules))
	for i, m := range e.Modules {
		reasons[i] = m.String()
	}
	return fmt.Sprintf("command loading failed due to invalid modules: %s", strings.Join(reasons, "; "))
}

func sourceLabel(category string, c *command.Command) string {
	name := c.Name()
	if name == "" {
		name = "unnamed"
	}
	return category + "/" + name
}

func validate(c *command.Command, category string) string {
	switch {
	case c == nil:
		return "nil command"
	case c.Definition == nil || c.Definition.Name == "":
		return "missing definition name"
	case c.Execute == nil:
		return "missing executor"
	case c.Category == "":
		return "empty category"
	case c.Category != category:
		return fmt.Sprintf("category %q does not match source category %q", c.Category, category)
	case c.Cooldown < 0:
		return "negative cooldown"
	}
	for customID, handler := range c.Components {
		if handler == nil {
			return fmt.Sprintf("nil handler for component %q", customID)
		}
	}
	return ""
}

// Load builds and validates a new registry generation from the manifest.
// All violations are collected before failing; partial success is rejected.
func Load(m Manifest, log zerolog.Logger) (*registry.Registry, error) {
	next := registry.New()
	var errs []ModuleError

	for _, src := range m {
		for _, c := range src.Build() {
			label := sourceLabel(src.Category, c)
			if reason := validate(c, src.Category); reason != "" {
				errs = append(errs, ModuleError{Source: label, Reason: reason})
				continue
			}
			if err := next.Register(c, label); err != nil {
				errs = append(errs, ModuleError{Source: label, Reason: err.Error()})
				continue
			}
			log.Debug().Str("name", c.Name()).Str("category", c.Category).Msg("Command loaded")
		}
	}

	if len(errs) > 0 {
		err := &LoadError{Modules: errs}
		log.Error().Int("errors", len(errs)).Msg(err.Error())
		return nil, err
	}

	log.Info().Int("count", next.Size()).Msg("Commands loaded")
	return next, nil
}

// Reload rebuilds a generation from the manifest and atomically swaps it
// into the live registry. The live registry is untouched on failure.
func Reload(live *registry.Registry, m Manifest, log zerolog.Logger) (int, error) {
	next, err := Load(m, log)
	if err != nil {
		return 0, err
	}
	if err := live.ReplaceFrom(next); err != nil {
		return 0, err
	}
	log.Info().Int("count", live.Size()).Msg("Commands applied")
	return live.Size(), nil
}

// ValidateEvents checks the event list the same all-or-nothing way.
func ValidateEvents(events []command.Event) error {
	var errs []ModuleError
	for i, ev := range events {
		label := fmt.Sprintf("events/%s", ev.Name)
		if ev.Name == "" {
			label = fmt.Sprintf("events/#%d", i)
			errs = append(errs, ModuleError{Source: label, Reason: "empty event name"})
			continue
		}
		if ev.Handler == nil {
			errs = append(errs, ModuleError{Source: label, Reason: "missing handler"})
		}
	}
	if len(errs) > 0 {
		return &LoadError{Modules: errs}
	}
	return nil
}
