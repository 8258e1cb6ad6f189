package greeter

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestRenderPlaceholders(t *testing.T) {
	u := &discordgo.User{ID: "123456789012345678", Username: "ang"}

	assert.Equal(t, "Welcome, <@123456789012345678>.", Render("Welcome, {user}.", u))
	assert.Equal(t, "Hello ang!", Render("Hello {username}!", u))
	assert.Equal(t, "no placeholders", Render("no placeholders", u))
	assert.Equal(t,
		"<@123456789012345678> aka ang",
		Render("{user} aka {username}", u))
}
