// Package moderation holds the guild moderation commands. Every command in
// this category requires Administrator permission and a guild context.
package moderation

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/autorole"
	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/respond"
)

var adminOnly = &command.Permissions{Admin: true, GuildOnly: true}

// Commands returns the moderation category command set.
func Commands() []*command.Command {
	return []*command.Command{
		banCommand(),
		kickCommand(),
		clearCommand(),
		autoroleCommand(),
	}
}

// targetGuard rejects punishments aimed at the invoker or the bot itself,
// and at members whose highest role outranks the invoker's.
func targetGuard(ctx *command.Context, target *discordgo.User) string {
	invoker := ctx.User()
	if target.ID == invoker.ID {
		return "You cannot do that to yourself."
	}
	if ctx.Session.State != nil && ctx.Session.State.User != nil && target.ID == ctx.Session.State.User.ID {
		return "Nice try. Not doing that to myself."
	}

	// Hierarchy check, best effort: skipped when role data is unavailable.
	roles, err := ctx.Session.GuildRoles(ctx.GuildID())
	if err != nil {
		return ""
	}
	targetMember, err := ctx.Session.GuildMember(ctx.GuildID(), target.ID)
	if err != nil {
		return ""
	}
	if highestRolePosition(roles, targetMember.Roles) >= highestRolePosition(roles, ctx.Interaction.Member.Roles) {
		return "That member's role is not below yours."
	}
	return ""
}

func highestRolePosition(guildRoles []*discordgo.Role, memberRoles []string) int {
	highest := -1
	for _, role := range guildRoles {
		for _, id := range memberRoles {
			if role.ID == id && role.Position > highest {
				highest = role.Position
			}
		}
	}
	return highest
}

func banCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "ban",
			Description: "Ban a member from this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Who to ban",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why they are being banned",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "delete-days",
					Description: "Days of their message history to delete (0-7)",
					MinValue:    float64Ptr(0),
					MaxValue:    7,
				},
			},
		},
		Category:    "moderation",
		Cooldown:    5,
		Permissions: adminOnly,
		Execute: func(ctx *command.Context) error {
			opts := ctx.Options()
			target := opts["member"].UserValue(ctx.Session)
			reason := "No reason provided."
			if opt, ok := opts["reason"]; ok {
				reason = opt.StringValue()
			}
			deleteDays := 0
			if opt, ok := opts["delete-days"]; ok {
				deleteDays = int(opt.IntValue())
			}

			if refusal := targetGuard(ctx, target); refusal != "" {
				return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Not allowed",
					Color: respond.ColorYellow,
					Body:  refusal,
				})
			}

			// The ban API round trips can outlast the interaction window.
			if err := respond.DeferEphemeral(ctx.Session, ctx.Interaction); err != nil {
				return fmt.Errorf("defer reply: %w", err)
			}
			if err := ctx.Session.GuildBanCreateWithReason(ctx.GuildID(), target.ID, reason, deleteDays); err != nil {
				return fmt.Errorf("ban %s: %w", target.ID, err)
			}
			return respond.EditReply(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Member banned",
				Color: respond.ColorRed,
				Body:  fmt.Sprintf("**%s** was banned.\nReason: %s", target.Username, reason),
			})
		},
	}
}

func kickCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "kick",
			Description: "Kick a member from this server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Who to kick",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why they are being kicked",
				},
			},
		},
		Category:    "moderation",
		Cooldown:    5,
		Permissions: adminOnly,
		Execute: func(ctx *command.Context) error {
			opts := ctx.Options()
			target := opts["member"].UserValue(ctx.Session)
			reason := "No reason provided."
			if opt, ok := opts["reason"]; ok {
				reason = opt.StringValue()
			}

			if refusal := targetGuard(ctx, target); refusal != "" {
				return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Not allowed",
					Color: respond.ColorYellow,
					Body:  refusal,
				})
			}

			if err := respond.DeferEphemeral(ctx.Session, ctx.Interaction); err != nil {
				return fmt.Errorf("defer reply: %w", err)
			}
			if err := ctx.Session.GuildMemberDeleteWithReason(ctx.GuildID(), target.ID, reason); err != nil {
				return fmt.Errorf("kick %s: %w", target.ID, err)
			}
			return respond.EditReply(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Member kicked",
				Color: respond.ColorYellow,
				Body:  fmt.Sprintf("**%s** was kicked.\nReason: %s", target.Username, reason),
			})
		},
	}
}

func clearCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "clear",
			Description: "Bulk delete recent messages in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "How many messages to delete (1-100)",
					Required:    true,
					MinValue:    float64Ptr(1),
					MaxValue:    100,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "member",
					Description: "Only delete messages by this member",
				},
			},
		},
		Category:    "moderation",
		Cooldown:    5,
		Permissions: adminOnly,
		Execute: func(ctx *command.Context) error {
			opts := ctx.Options()
			amount := int(opts["amount"].IntValue())
			if amount < 1 {
				amount = 1
			}
			if amount > 100 {
				amount = 100
			}
			var authorID string
			if opt, ok := opts["member"]; ok {
				authorID = opt.UserValue(ctx.Session).ID
			}

			channelID := ctx.Interaction.ChannelID
			messages, err := ctx.Session.ChannelMessages(channelID, amount, "", "", "")
			if err != nil {
				return fmt.Errorf("list messages in %s: %w", channelID, err)
			}
			ids := make([]string, 0, len(messages))
			for _, m := range messages {
				if authorID != "" && (m.Author == nil || m.Author.ID != authorID) {
					continue
				}
				ids = append(ids, m.ID)
			}
			if len(ids) > 0 {
				if err := ctx.Session.ChannelMessagesBulkDelete(channelID, ids); err != nil {
					return fmt.Errorf("bulk delete in %s: %w", channelID, err)
				}
			}

			return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Channel cleaned",
				Color: respond.ColorGreen,
				Body:  fmt.Sprintf("Deleted **%d** message(s).", len(ids)),
			})
		},
	}
}

func autoroleCommand() *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "autorole",
			Description: "Manage roles granted automatically to new members",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Grant a role to every new member",
					Options:     []*discordgo.ApplicationCommandOption{roleOption("Role to grant")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Stop granting a role",
					Options:     []*discordgo.ApplicationCommandOption{roleOption("Role to stop granting")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "blacklist",
					Description: "Block a role from ever being auto-granted",
					Options:     []*discordgo.ApplicationCommandOption{roleOption("Role to block")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "unblacklist",
					Description: "Remove a role from the blacklist",
					Options:     []*discordgo.ApplicationCommandOption{roleOption("Role to unblock")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "Show the current autorole configuration",
				},
			},
		},
		Category:    "moderation",
		Cooldown:    5,
		Permissions: adminOnly,
		Execute: func(ctx *command.Context) error {
			rec, err := ctx.Store.LoadGuild(ctx.Ctx, ctx.GuildID())
			if err != nil {
				return fmt.Errorf("load guild %s: %w", ctx.GuildID(), err)
			}

			sub := ctx.Interaction.ApplicationCommandData().Options[0]
			if sub.Name == "list" {
				cfg := rec.Autorole()
				return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Autorole configuration",
					Color: respond.ColorBlue,
					Body: fmt.Sprintf("Granted roles: %s\nBlacklisted: %s",
						roleList(cfg.Roles), roleList(cfg.Blacklist)),
				})
			}

			role := command.OptionMap(sub.Options)["role"].RoleValue(ctx.Session, ctx.GuildID())
			var changed bool
			var verb string
			switch sub.Name {
			case "add":
				changed, verb = autorole.AddRole(rec, role.ID), "added to the autorole list"
			case "remove":
				changed, verb = autorole.RemoveRole(rec, role.ID), "removed from the autorole list"
			case "blacklist":
				changed, verb = autorole.Blacklist(rec, role.ID), "blacklisted"
			case "unblacklist":
				changed, verb = autorole.Unblacklist(rec, role.ID), "removed from the blacklist"
			}

			if !changed {
				return respond.ReplyEphemeral(ctx.Session, ctx.Interaction, respond.Card{
					Title: "Nothing to do",
					Color: respond.ColorYellow,
					Body:  fmt.Sprintf("<@&%s> is already in that state.", role.ID),
				})
			}
			return respond.Reply(ctx.Session, ctx.Interaction, respond.Card{
				Title: "Autorole updated",
				Color: respond.ColorGreen,
				Body:  fmt.Sprintf("<@&%s> was %s.", role.ID, verb),
			})
		},
	}
}

func roleOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: description,
		Required:    true,
	}
}

func roleList(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += "<@&" + id + ">"
	}
	return out
}

func float64Ptr(v float64) *float64 { return &v }
