// Package utility holds general-purpose server utility commands.
package utility

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/respond"
	"github.com/Anggahrm/dc-zumy/internal/store"
)

// Commands returns the utility category command set.
func Commands() []*command.Command {
	return []*command.Command{
		userinfoCommand(),
		greeterCommand(),
	}
}

func userinfoCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "userinfo",
			Description: "Show account details for a member",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Who to inspect (defaults to you)",
				},
			},
		},
		Category: "utility",
		Cooldown: 2,
		Execute: func(ctx *command.Context) error {
			target := ctx.User()
			if opt, ok := ctx.Options()["member"]; ok {
				target = opt.UserValue(ctx.Session)
			}

			created, err := discordgo.SnowflakeTimestamp(target.ID)
			if err != nil {
				return fmt.Errorf("parse snowflake %q: %w", target.ID, err)
			}

			body := fmt.Sprintf("ID: `%s`\nCreated: %s", target.ID, created.UTC().Format("Jan 2, 2006"))
			if ctx.GuildID() != "" {
				if member, err := ctx.Session.GuildMember(ctx.GuildID(), target.ID); err == nil {
					body += fmt.Sprintf("\nJoined: %s\nRoles: %d", member.JoinedAt.UTC().Format("Jan 2, 2006"), len(member.Roles))
				}
			}

			return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
				Title:     target.Username,
				Color:     respond.ColorBlue,
				Body:      body,
				Thumbnail: target.AvatarURL("256"),
			})
		},
	}
}

func greeterCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "greeter",
			Description: "Configure welcome and farewell messages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "welcome",
					Description: "Configure the welcome greeting",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Turn the welcome greeting on or off",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel to greet in",
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "message",
							Description: "Greeting text, {user} mentions the member",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "Set or clear the farewell channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel for farewell notices, omit to clear",
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildText,
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Show the current greeter configuration",
				},
			},
		},
		Category:    "utility",
		Permissions: &command.Permissions{Admin: true, GuildOnly: true},
		Execute: func(ctx *command.Context) error {
			rec, err := ctx.Store.LoadGuild(ctx.Ctx, ctx.GuildID())
			if err != nil {
				return fmt.Errorf("load guild %s: %w", ctx.GuildID(), err)
			}

			sub := ctx.Interaction.ApplicationCommandData().Options[0]
			opts := command.OptionMap(sub.Options)

			switch sub.Name {
			case "welcome":
				cfg := rec.Welcome()
				cfg.Enabled = opts["enabled"].BoolValue()
				if opt, ok := opts["channel"]; ok {
					cfg.ChannelID = opt.ChannelValue(ctx.Session).ID
				}
				if opt, ok := opts["message"]; ok {
					cfg.Message = opt.StringValue()
				}
				rec.SetWelcome(cfg)
				return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Greeter updated",
					Color: respond.ColorGreen,
					Body:  welcomeSummary(cfg),
				})

			case "leave":
				cfg := rec.Greeter()
				cfg.LeaveChannelID = ""
				if opt, ok := opts["channel"]; ok {
					cfg.LeaveChannelID = opt.ChannelValue(ctx.Session).ID
				}
				rec.SetGreeter(cfg)
				body := "Farewell notices are off."
				if cfg.LeaveChannelID != "" {
					body = fmt.Sprintf("Farewell notices go to <#%s>.", cfg.LeaveChannelID)
				}
				return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Greeter updated",
					Color: respond.ColorGreen,
					Body:  body,
				})

			default: // show
				welcome := rec.Welcome()
				leave := rec.Greeter().LeaveChannelID
				body := welcomeSummary(welcome)
				if leave != "" {
					body += fmt.Sprintf("\nFarewell channel: <#%s>", leave)
				} else {
					body += "\nFarewell notices: off"
				}
				return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Greeter configuration",
					Color: respond.ColorBlue,
					Body:  body,
				})
			}
		},
	}
}

func welcomeSummary(cfg store.WelcomeConfig) string {
	state := "off"
	if cfg.Enabled {
		state = "on"
	}
	channel := "not set"
	if cfg.ChannelID != "" {
		channel = "<#" + cfg.ChannelID + ">"
	}
	return fmt.Sprintf("Welcome greeting: %s\nChannel: %s\nMessage: %s", state, channel, cfg.Message)
}
