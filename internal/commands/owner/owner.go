// Package owner holds commands restricted to the configured bot owners.
package owner

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/respond"
)

var ownerOnly = &command.Permissions{Owner: true}

// Commands returns the owner category command set.
func Commands() []*command.Command {
	return []*command.Command{
		reloadCommand(),
		botmodeCommand(),
	}
}

func reloadCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "reloadcommands",
			Description: "Rebuild the command registry from its sources",
		},
		Category:    "owner",
		Cooldown:    3,
		Permissions: ownerOnly,
		Execute: func(ctx *command.Context) error {
			if ctx.Reload == nil {
				return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Unavailable",
					Color: respond.ColorYellow,
					Body:  "Hot reloading is not enabled on this instance.",
				})
			}

			count, err := ctx.Reload()
			if err != nil {
				return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Reload rejected",
					Color: respond.ColorRed,
					Body:  "The new command set failed validation, the old one stays live.\n```" + err.Error() + "```",
				})
			}
			return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Commands reloaded",
				Color: respond.ColorGreen,
				Body:  fmt.Sprintf("**%d** command(s) are live.", count),
			})
		},
	}
}

func botmodeCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "botmode",
			Description: "Inspect or change the bot's global mode",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "New global mode",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "public", Value: "public"},
						{Name: "private", Value: "private"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "maintenance",
					Description: "Toggle maintenance mode",
				},
			},
		},
		Category:    "owner",
		Permissions: ownerOnly,
		Execute: func(ctx *command.Context) error {
			rec := ctx.Store.Bot()
			opts := ctx.Options()

			changed := false
			if opt, ok := opts["mode"]; ok {
				rec.SetMode(opt.StringValue())
				changed = true
			}
			if opt, ok := opts["maintenance"]; ok {
				rec.SetMaintenance(opt.BoolValue())
				changed = true
			}

			doc := rec.Snapshot()
			title := "Bot mode"
			color := respond.ColorBlue
			if changed {
				title = "Bot mode updated"
				color = respond.ColorGreen
			}
			maintenance := "off"
			if doc.Maintenance {
				maintenance = "on"
			}
			return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
				Title: title,
				Color: color,
				Body:  fmt.Sprintf("Mode: **%s**\nMaintenance: **%s**", doc.Mode, maintenance),
			})
		},
	}
}
