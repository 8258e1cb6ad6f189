package permission

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/Anggahrm/dc-zumy/internal/command"
)

func guildInteraction(userID string, perms int64) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			GuildID: "876543210987654321",
			Member: &discordgo.Member{
				User:        &discordgo.User{ID: userID},
				Permissions: perms,
			},
		},
	}
}

func dmInteraction(userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			User: &discordgo.User{ID: userID},
		},
	}
}

func TestNilRequirementAllows(t *testing.T) {
	s := New(nil)
	dec := s.Check(dmInteraction("123"), nil)
	assert.True(t, dec.OK)
}

func TestOwnerGate(t *testing.T) {
	s := New([]string{"111111111111111111"})
	req := &command.Permissions{Owner: true}

	dec := s.Check(dmInteraction("111111111111111111"), req)
	assert.True(t, dec.OK)

	dec = s.Check(dmInteraction("222222222222222222"), req)
	assert.False(t, dec.OK)
	assert.Equal(t, "This one is owner-only.", dec.Reason)
}

func TestGuildOnlyGate(t *testing.T) {
	s := New(nil)
	req := &command.Permissions{GuildOnly: true}

	dec := s.Check(guildInteraction("123", 0), req)
	assert.True(t, dec.OK)

	dec = s.Check(dmInteraction("123"), req)
	assert.False(t, dec.OK)
	assert.Equal(t, "This command only works in a server.", dec.Reason)
}

func TestAdminGate(t *testing.T) {
	s := New(nil)
	req := &command.Permissions{Admin: true, GuildOnly: true}

	dec := s.Check(guildInteraction("123", discordgo.PermissionAdministrator), req)
	assert.True(t, dec.OK)

	dec = s.Check(guildInteraction("123", discordgo.PermissionSendMessages), req)
	assert.False(t, dec.OK)
	assert.Equal(t, "You need Administrator permission for this command.", dec.Reason)
}

func TestOwnerBypassesNothingElse(t *testing.T) {
	// Owners still need a guild for guild-only commands.
	s := New([]string{"111111111111111111"})
	req := &command.Permissions{Owner: true, GuildOnly: true}

	dec := s.Check(dmInteraction("111111111111111111"), req)
	assert.False(t, dec.OK)
	assert.Equal(t, "This command only works in a server.", dec.Reason)
}

func TestIsOwnerIgnoresEmptyEntries(t *testing.T) {
	s := New([]string{"", "111111111111111111"})
	assert.True(t, s.IsOwner("111111111111111111"))
	assert.False(t, s.IsOwner(""))
}
