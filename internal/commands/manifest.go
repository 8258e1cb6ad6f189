// Package commands assembles the command manifest and the gateway event
// bindings from the per-category packages.
package commands

import (
	"github.com/Anggahrm/dc-zumy/internal/commands/info"
	"github.com/Anggahrm/dc-zumy/internal/commands/moderation"
	"github.com/Anggahrm/dc-zumy/internal/commands/owner"
	"github.com/Anggahrm/dc-zumy/internal/commands/rpg"
	"github.com/Anggahrm/dc-zumy/internal/commands/utility"
	"github.com/Anggahrm/dc-zumy/internal/loader"
)

// Manifest returns every command source in load order.
func Manifest() loader.Manifest {
	return loader.Manifest{
		{Category: "info", Build: info.Commands},
		{Category: "rpg", Build: rpg.Commands},
		{Category: "moderation", Build: moderation.Commands},
		{Category: "utility", Build: utility.Commands},
		{Category: "owner", Build: owner.Commands},
	}
}
