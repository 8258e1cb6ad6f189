package registry

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anggahrm/dc-zumy/internal/command"
)

func testCommand(name string, components map[string]command.ComponentFunc) *command.Command {
	return &command.Command{
		Definition: &discordgo.ApplicationCommand{Name: name, Description: "test"},
		Category:   "test",
		Execute:    func(*command.Context) error { return nil },
		Components: components,
	}
}

func noopComponent(*command.Context) error { return nil }

func TestRegisterAndGet(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testCommand("ping", nil), "test/ping"))

	got, ok := r.Get("ping")
	assert.True(t, ok)
	assert.Equal(t, "ping", got.Name())
	assert.Equal(t, 1, r.Size())
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testCommand("ping", nil), "info/ping"))

	err := r.Register(testCommand("ping", nil), "misc/ping")
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "info/ping")
	assert.Contains(t, err.Error(), "misc/ping")
	assert.Equal(t, 1, r.Size())
}

func TestRegisterDuplicateComponentLeavesRegistryUntouched(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testCommand("help", map[string]command.ComponentFunc{
		"help:home": noopComponent,
	}), "info/help"))

	err := r.Register(testCommand("guide", map[string]command.ComponentFunc{
		"guide:start": noopComponent,
		"help:home":   noopComponent,
	}), "info/guide")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "help:home")

	// Neither the command nor its non-conflicting component landed.
	_, ok := r.Get("guide")
	assert.False(t, ok)
	_, ok = r.ComponentHandler("guide:start")
	assert.False(t, ok)
}

func TestAllIsSorted(t *testing.T) {
	r := New()
	for _, name := range []string{"zebra", "alpha", "mango"} {
		require.NoError(t, r.Register(testCommand(name, nil), "test/"+name))
	}

	names := make([]string, 0, 3)
	for _, c := range r.All() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, names)
}

func TestSerializeDefaultsCommandType(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testCommand("ping", nil), "test/ping"))

	defs, err := r.Serialize()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, discordgo.ChatApplicationCommand, defs[0].Type)

	// Serialize returns copies, not the registered definitions.
	defs[0].Description = "mutated"
	got, _ := r.Get("ping")
	assert.Equal(t, "test", got.Definition.Description)
}

func TestReplaceFromSwapsAtomically(t *testing.T) {
	live := New()
	require.NoError(t, live.Register(testCommand("ping", nil), "info/ping"))

	next := New()
	require.NoError(t, next.Register(testCommand("daily", nil), "rpg/daily"))
	require.NoError(t, next.Register(testCommand("profile", nil), "rpg/profile"))

	require.NoError(t, live.ReplaceFrom(next))
	assert.Equal(t, 2, live.Size())
	_, ok := live.Get("ping")
	assert.False(t, ok)
	_, ok = live.Get("daily")
	assert.True(t, ok)
}

func TestReplaceFromKeepsLiveOnFailure(t *testing.T) {
	live := New()
	require.NoError(t, live.Register(testCommand("ping", nil), "info/ping"))

	// A registry with a broken entry forced in. ReplaceFrom re-validates
	// and must refuse the whole swap.
	broken := New()
	broken.commands["bad"] = &command.Command{Definition: &discordgo.ApplicationCommand{Name: "bad"}}
	broken.sources["bad"] = "test/bad"

	err := live.ReplaceFrom(broken)
	require.Error(t, err)
	assert.Equal(t, 1, live.Size())
	_, ok := live.Get("ping")
	assert.True(t, ok)
}
