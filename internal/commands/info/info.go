// Package info holds the general information commands.
package info

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/respond"
)

var started = time.Now()

// Commands returns the info category command set.
func Commands() []*command.Command {
	return []*command.Command{
		pingCommand(),
		helpCommand(),
	}
}

func pingCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "ping",
			Description: "Check whether the bot is alive and how fast it answers",
		},
		Category: "info",
		Cooldown: 2,
		Execute: func(ctx *command.Context) error {
			latency := ctx.Session.HeartbeatLatency()
			uptime := time.Since(started).Round(time.Second)
			return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Pong!",
				Color: respond.ColorGreen,
				Body:  fmt.Sprintf("Gateway latency: **%dms**\nUptime: **%s**", latency.Milliseconds(), uptime),
			})
		},
	}
}

func helpCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "help",
			Description: "Browse the available commands by category",
		},
		Category: "info",
		Cooldown: 2,
		Execute: func(ctx *command.Context) error {
			card, components := helpHome(ctx.Registry)
			return respond.ReplyComponents(ctx.Session, ctx.Interaction, card, components)
		},
		Components: map[string]command.ComponentFunc{
			"help:category": func(ctx *command.Context) error {
				values := ctx.Interaction.MessageComponentData().Values
				if len(values) == 0 {
					card, components := helpHome(ctx.Registry)
					return respond.Update(ctx.Session, ctx.Interaction, card, components)
				}
				card, components := helpCategory(ctx.Registry, values[0])
				return respond.Update(ctx.Session, ctx.Interaction, card, components)
			},
			"help:home": func(ctx *command.Context) error {
				card, components := helpHome(ctx.Registry)
				return respond.Update(ctx.Session, ctx.Interaction, card, components)
			},
		},
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func categories(reg command.RegistryView) []string {
	seen := make(map[string]int)
	for _, c := range reg.All() {
		seen[c.Category]++
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func helpHome(reg command.RegistryView) (respond.Card, []discordgo.MessageComponent) {
	var b strings.Builder
	counts := make(map[string]int)
	for _, c := range reg.All() {
		counts[c.Category]++
	}
	for _, name := range categories(reg) {
		fmt.Fprintf(&b, "**%s**: %d command(s)\n", title(name), counts[name])
	}
	b.WriteString("\nPick a category below to see its commands.")

	card := respond.Card{
		Title: "Command Help",
		Color: respond.ColorBlurple,
		Body:  b.String(),
	}
	return card, helpComponents(reg)
}

func helpCategory(reg command.RegistryView, category string) (respond.Card, []discordgo.MessageComponent) {
	var b strings.Builder
	for _, c := range reg.All() {
		if c.Category != category {
			continue
		}
		fmt.Fprintf(&b, "**/%s**: %s\n", c.Name(), c.Definition.Description)
	}
	if b.Len() == 0 {
		b.WriteString("No commands in this category.")
	}

	card := respond.Card{
		Title: title(category) + " Commands",
		Color: respond.ColorBlurple,
		Body:  b.String(),
	}
	return card, helpComponents(reg)
}

func helpComponents(reg command.RegistryView) []discordgo.MessageComponent {
	names := categories(reg)
	options := make([]discordgo.SelectMenuOption, 0, len(names))
	for _, name := range names {
		options = append(options, discordgo.SelectMenuOption{
			Label: title(name),
			Value: name,
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    "help:category",
					Placeholder: "Choose a category",
					Options:     options,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: "help:home",
					Label:    "Overview",
					Style:    discordgo.SecondaryButton,
				},
			},
		},
	}
}
