// Package permission evaluates static command access rules against the
// invoking actor.
package permission

import (
	"github.com/bwmarrin/discordgo"

	"github.com/Anggahrm/dc-zumy/internal/command"
)

// Decision is the outcome of a permission check. Reason is user-facing
// when OK is false.
type Decision struct {
	OK     bool
	Reason string
}

// Service holds the configured owner allowlist.
type Service struct {
	owners []string
}

// New returns a permission service for the given owner IDs.
func New(owners []string) *Service {
	return &Service{owners: owners}
}

// IsOwner reports whether userID is in the owner allowlist.
func (s *Service) IsOwner(userID string) bool {
	for _, id := range s.owners {
		if id != "" && id == userID {
			return true
		}
	}
	return false
}

// Check evaluates the requirement flags in order, short-circuiting on the
// first failure. A nil or empty requirement always allows.
func (s *Service) Check(i *discordgo.InteractionCreate, req *command.Permissions) Decision {
	if req == nil {
		return Decision{OK: true}
	}

	if req.Owner && !s.IsOwner(actorID(i)) {
		return Decision{Reason: "This one is owner-only."}
	}

	if req.GuildOnly && i.GuildID == "" {
		return Decision{Reason: "This command only works in a server."}
	}

	if req.Admin {
		if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
			return Decision{Reason: "You need Administrator permission for this command."}
		}
	}

	return Decision{OK: true}
}

func actorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
