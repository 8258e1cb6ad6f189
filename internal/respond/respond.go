// Package respond provides the embed card helpers commands reply with.
package respond

import (
	"github.com/bwmarrin/discordgo"
)

// Accent colors used across command replies.
const (
	ColorBlurple = 0x5865f2
	ColorGreen   = 0x57f287
	ColorRed     = 0xed4245
	ColorYellow  = 0xfee75c
	ColorGold    = 0xf1c40f
	ColorPurple  = 0x9b59b6
	ColorBlue    = 0x3498db
)

// Card is the structured visual payload of a reply.
type Card struct {
	Title     string
	Color     int
	Body      string
	Thumbnail string
}

// Embed converts a card to a Discord embed.
func (c Card) Embed() *discordgo.MessageEmbed {
	color := c.Color
	if color == 0 {
		color = ColorBlurple
	}
	embed := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Body,
		Color:       color,
	}
	if c.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.Thumbnail}
	}
	return embed
}

// Reply sends a public card response to an interaction.
func Reply(s *discordgo.Session, i *discordgo.InteractionCreate, card Card) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{card.Embed()},
		},
	})
}

// ReplyEphemeral sends an ephemeral card response to an interaction.
func ReplyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, card Card) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{card.Embed()},
		},
	})
}

// ReplyComponents sends a public response carrying a card plus message
// components (select menus, buttons).
func ReplyComponents(s *discordgo.Session, i *discordgo.InteractionCreate, card Card, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{card.Embed()},
			Components: components,
		},
	})
}

// Update replaces the message a component interaction originated from.
func Update(s *discordgo.Session, i *discordgo.InteractionCreate, card Card, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{card.Embed()},
			Components: components,
		},
	})
}

// DeferEphemeral acknowledges an interaction without an immediate reply.
func DeferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// EditReply edits a deferred or already-sent interaction response.
func EditReply(s *discordgo.Session, i *discordgo.InteractionCreate, card Card) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{card.Embed()},
	})
	return err
}

// ReplyError sends a red ephemeral "Oops" card, falling back to a followup
// if the interaction was already acknowledged. Best effort.
func ReplyError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	card := Card{Title: "Oops", Color: ColorRed, Body: message}
	err := ReplyEphemeral(s, i, card)
	if err != nil {
		_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{card.Embed()},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}
}

// ChannelCard sends a card to a channel outside any interaction.
func ChannelCard(s *discordgo.Session, channelID string, card Card) error {
	_, err := s.ChannelMessageSendEmbed(channelID, card.Embed())
	return err
}
