// Package greeter posts welcome and farewell cards for member joins and
// leaves, driven by each guild's stored greeter configuration.
package greeter

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/Anggahrm/dc-zumy/internal/respond"
	"github.com/Anggahrm/dc-zumy/internal/store"
)

// Service renders greeting cards from guild records.
type Service struct {
	store *store.Store
	log   zerolog.Logger
}

func New(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// MemberJoined posts the welcome greeting when the guild has one enabled.
func (g *Service) MemberJoined(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	rec := g.store.Guild(m.GuildID)
	if rec == nil {
		return
	}

	welcome := rec.Welcome()
	channelID := welcome.ChannelID
	if channelID == "" {
		channelID = rec.Greeter().WelcomeChannelID
	}
	if !welcome.Enabled || channelID == "" {
		return
	}

	card := respond.Card{
		Title: "Welcome!",
		Color: respond.ColorGreen,
		Body:  Render(welcome.Message, m.User),
	}
	if err := respond.ChannelCard(s, channelID, card); err != nil {
		g.log.Warn().Err(err).
			Str("guild", m.GuildID).
			Str("channel", channelID).
			Msg("Could not deliver welcome greeting")
	}
}

// MemberLeft posts the farewell notice when a leave channel is configured.
func (g *Service) MemberLeft(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || m.User.Bot {
		return
	}
	rec := g.store.Guild(m.GuildID)
	if rec == nil {
		return
	}

	channelID := rec.Greeter().LeaveChannelID
	if channelID == "" {
		return
	}

	card := respond.Card{
		Title: "Goodbye",
		Color: respond.ColorYellow,
		Body:  m.User.Username + " left the server.",
	}
	if err := respond.ChannelCard(s, channelID, card); err != nil {
		g.log.Warn().Err(err).
			Str("guild", m.GuildID).
			Str("channel", channelID).
			Msg("Could not deliver farewell notice")
	}
}

// Render expands greeting placeholders: {user} becomes a mention and
// {username} the plain name.
func Render(template string, u *discordgo.User) string {
	out := strings.ReplaceAll(template, "{user}", u.Mention())
	out = strings.ReplaceAll(out, "{username}", u.Username)
	return out
}
