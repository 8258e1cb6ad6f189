package commands

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/Anggahrm/dc-zumy/internal/autorole"
	"github.com/Anggahrm/dc-zumy/internal/command"
	"github.com/Anggahrm/dc-zumy/internal/greeter"
	"github.com/Anggahrm/dc-zumy/internal/store"
)

// Events returns the gateway event bindings.
func Events(st *store.Store, log zerolog.Logger) []command.Event {
	greetings := greeter.New(st, log)
	roles := autorole.New(st, log)

	return []command.Event{
		{
			Name: "ready",
			Once: true,
			Handler: func(s *discordgo.Session, r *discordgo.Ready) {
				log.Info().
					Str("username", r.User.Username).
					Int("guilds", len(r.Guilds)).
					Msg("Gateway session ready")
			},
		},
		{
			Name: "guildMemberAdd",
			Handler: func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
				roles.Apply(s, m)
				greetings.MemberJoined(s, m)
			},
		},
		{
			Name: "guildMemberRemove",
			Handler: func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
				greetings.MemberLeft(s, m)
			},
		},
		{
			Name: "guildCreate",
			Handler: func(s *discordgo.Session, g *discordgo.GuildCreate) {
				// Materializes the guild record so configuration reads are warm.
				st.Guild(g.ID)
				log.Info().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
			},
		},
	}
}
