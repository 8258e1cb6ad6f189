// Package cooldown tracks per-(command, user) rate limits in memory.
// Entries are not persisted across restarts; cooldowns are a UX throttle,
// not a security control.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Service maps (command, user) to an absolute expiry instant. Expired
// entries are evicted lazily on lookup and by the optional sweeper.
type Service struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// New returns an empty cooldown service using the wall clock.
func New() *Service {
	return &Service{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func key(commandName, userID string) string {
	return commandName + ":" + userID
}

// Remaining returns whole seconds left on the cooldown, rounded up.
// Returns 0 (and evicts the entry) once the expiry has passed.
func (s *Service) Remaining(commandName, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(commandName, userID)
	expiresAt, ok := s.entries[k]
	if !ok {
		return 0
	}
	remaining := expiresAt.Sub(s.now())
	if remaining <= 0 {
		delete(s.entries, k)
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// Consume unconditionally (re)sets the expiry to now + cooldownSeconds.
func (s *Service) Consume(commandName, userID string, cooldownSeconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key(commandName, userID)] = s.now().Add(time.Duration(cooldownSeconds) * time.Second)
}

// Sweep evicts expired entries periodically until ctx is done, bounding
// memory for keys that are never looked up again.
func (s *Service) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for k, expiresAt := range s.entries {
				if !expiresAt.After(now) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
