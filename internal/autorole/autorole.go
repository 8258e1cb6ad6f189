// Package autorole assigns a guild's configured roles to new members,
// honoring the per-guild blacklist.
package autorole

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/Anggahrm/dc-zumy/internal/store"
)

// Service applies stored autorole configuration on member joins.
type Service struct {
	store *store.Store
	log   zerolog.Logger
}

func New(st *store.Store, log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// Apply grants every configured role to the new member, skipping
// blacklisted ones. Role grant failures are logged and do not stop the
// remaining grants.
func (a *Service) Apply(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	rec := a.store.Guild(m.GuildID)
	if rec == nil {
		return
	}

	cfg := rec.Autorole()
	if len(cfg.Roles) == 0 {
		return
	}
	blocked := make(map[string]struct{}, len(cfg.Blacklist))
	for _, id := range cfg.Blacklist {
		blocked[id] = struct{}{}
	}

	for _, roleID := range cfg.Roles {
		if _, skip := blocked[roleID]; skip {
			continue
		}
		if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, roleID); err != nil {
			a.log.Warn().Err(err).
				Str("guild", m.GuildID).
				Str("user", m.User.ID).
				Str("role", roleID).
				Msg("Could not grant autorole")
		}
	}
}

// AddRole adds a role ID to the guild's autorole list. Returns false when
// the ID is empty or already present.
func AddRole(rec *store.GuildRecord, roleID string) bool {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return false
	}
	cfg := rec.Autorole()
	if contains(cfg.Roles, roleID) {
		return false
	}
	cfg.Roles = append(cfg.Roles, roleID)
	rec.SetAutorole(cfg)
	return true
}

// RemoveRole removes a role ID from the autorole list.
func RemoveRole(rec *store.GuildRecord, roleID string) bool {
	cfg := rec.Autorole()
	next, removed := without(cfg.Roles, strings.TrimSpace(roleID))
	if !removed {
		return false
	}
	cfg.Roles = next
	rec.SetAutorole(cfg)
	return true
}

// Blacklist adds a role ID to the blacklist and drops it from the active
// role list so it can never be granted.
func Blacklist(rec *store.GuildRecord, roleID string) bool {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return false
	}
	cfg := rec.Autorole()
	if contains(cfg.Blacklist, roleID) {
		return false
	}
	cfg.Blacklist = append(cfg.Blacklist, roleID)
	cfg.Roles, _ = without(cfg.Roles, roleID)
	rec.SetAutorole(cfg)
	return true
}

// Unblacklist removes a role ID from the blacklist.
func Unblacklist(rec *store.GuildRecord, roleID string) bool {
	cfg := rec.Autorole()
	next, removed := without(cfg.Blacklist, strings.TrimSpace(roleID))
	if !removed {
		return false
	}
	cfg.Blacklist = next
	rec.SetAutorole(cfg)
	return true
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func without(list []string, id string) ([]string, bool) {
	out := make([]string, 0, len(list))
	removed := false
	for _, v := range list {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}
